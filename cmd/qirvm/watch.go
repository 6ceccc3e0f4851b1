package main

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"qirvm/internal/backend"
	"qirvm/internal/config"
	"qirvm/internal/driver"
	"qirvm/internal/exec"
	"qirvm/internal/trace"
)

const watchOpRows = 12

var (
	watchHeader = lipgloss.NewStyle().Bold(true)
	watchOp     = lipgloss.NewStyle().Faint(true)
	watchErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

type watchOpMsg struct{ name string }
type watchShotMsg struct{}
type watchDoneMsg struct{ err error }

type watchModel struct {
	spin  spinner.Model
	entry string
	total int
	shots int
	ops   []string
	done  bool
	err   error
}

func newWatchModel(entry string, total int) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return watchModel{spin: s, entry: entry, total: total}
}

func (m watchModel) Init() tea.Cmd { return m.spin.Tick }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case watchOpMsg:
		m.ops = append(m.ops, msg.name)
		if len(m.ops) > watchOpRows {
			m.ops = m.ops[len(m.ops)-watchOpRows:]
		}
		return m, nil
	case watchShotMsg:
		m.shots++
		return m, nil
	case watchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	status := m.spin.View()
	if m.done {
		status = "done"
	}
	view := watchHeader.Render(fmt.Sprintf("%s %s  shot %d/%d", status, m.entry, m.shots, m.total)) + "\n"
	for _, op := range m.ops {
		view += "  " + watchOp.Render(runewidth.Truncate(op, 48, "…")) + "\n"
	}
	if m.err != nil {
		view += watchErr.Render(m.err.Error()) + "\n"
	}
	if !m.done {
		view += "press q to stop watching\n"
	}
	return view
}

// runWatch executes the shot loop behind a live dispatch view. The shot
// loop runs synchronously on its own goroutine; the view runs on the
// calling goroutine.
func runWatch(cmd *cobra.Command, path string, cfg config.Config, _ trace.Tracer) error {
	mod, err := driver.Load(path)
	if err != nil {
		return err
	}

	tracer := trace.NewStreamTracer(discardWriter{}, trace.LevelDebug)
	x, err := exec.New(mod, exec.Options{Tracer: tracer})
	if err != nil {
		return err
	}

	quantum := &backend.Recorder{LowerST: cfg.Run.LowerST}
	if cfg.Run.Seed != 0 {
		quantum.Rand = rand.New(rand.NewSource(cfg.Run.Seed))
	}
	var runtime flusher
	switch cfg.Run.Runtime {
	case config.RuntimeTuple:
		runtime = backend.NewTupleRuntime(cmd.OutOrStdout(), x.Memory(), quantum)
	default:
		runtime = backend.NewStatsRuntime(cmd.OutOrStdout(), x.Memory(), quantum)
	}

	p := tea.NewProgram(newWatchModel(x.EntryName(), cfg.Run.Shots))
	tracer.Sink = func(ev trace.Event) {
		if ev.Kind == trace.KindPoint && ev.Level == trace.LevelDebug {
			p.Send(watchOpMsg{name: ev.Name})
		}
	}

	go func() {
		for shot := 0; shot < cfg.Run.Shots; shot++ {
			if err := x.Run(quantum, runtime); err != nil {
				p.Send(watchDoneMsg{err: fmt.Errorf("shot %d: %w", shot, err)})
				return
			}
			p.Send(watchShotMsg{})
		}
		p.Send(watchDoneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(watchModel); ok && m.err != nil {
		return m.err
	}
	return runtime.Flush()
}

// discardWriter drops the stream form of the trace; the watch view consumes
// events through the sink.
type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
