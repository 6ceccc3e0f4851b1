package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"qirvm/internal/backend"
	"qirvm/internal/config"
	"qirvm/internal/driver"
	"qirvm/internal/exec"
	"qirvm/internal/observ"
	"qirvm/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <program.ll>",
	Short: "Execute a QIR program",
	Long:  `Load a QIR program, bind its quantum symbols, and execute the entry point for the requested number of shots`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().Int("shots", 0, "number of executions (default from qirvm.toml, else 1024)")
	runCmd.Flags().String("runtime", "", "output runtime (stats|tuple)")
	runCmd.Flags().Int64("seed", 0, "seed for synthesized measurement outcomes (0 = all zeros)")
	runCmd.Flags().Bool("lower-st", false, "rewrite S/T gates into Rz rotations")
	runCmd.Flags().String("config", config.DefaultFile, "path to the run manifest")
	runCmd.Flags().String("trace", "", "trace level (off|error|phase|detail|debug)")
	runCmd.Flags().String("trace-file", "", "write trace events to a file instead of stderr")
	runCmd.Flags().Bool("watch", false, "show a live dispatch view while running")
}

// flusher is a runtime that buffers output until the shot loop finishes.
type flusher interface {
	backend.Runtime
	Flush() error
}

func runExecution(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("shots") {
		cfg.Run.Shots, _ = cmd.Flags().GetInt("shots")
	}
	if cmd.Flags().Changed("runtime") {
		cfg.Run.Runtime, _ = cmd.Flags().GetString("runtime")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Run.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("lower-st") {
		cfg.Run.LowerST, _ = cmd.Flags().GetBool("lower-st")
	}
	if cmd.Flags().Changed("trace") {
		cfg.Trace.Level, _ = cmd.Flags().GetString("trace")
	}
	if cmd.Flags().Changed("trace-file") {
		cfg.Trace.File, _ = cmd.Flags().GetString("trace-file")
	}
	if cfg.Run.Shots <= 0 {
		return fmt.Errorf("shots must be positive, got %d", cfg.Run.Shots)
	}

	level, err := trace.ParseLevel(cfg.Trace.Level)
	if err != nil {
		return err
	}
	traceOut := io.Writer(os.Stderr)
	if cfg.Trace.File != "" {
		f, err := os.Create(cfg.Trace.File)
		if err != nil {
			return err
		}
		defer f.Close()
		traceOut = f
	}
	tracer := trace.NewStreamTracer(traceOut, level)

	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		return runWatch(cmd, args[0], cfg, tracer)
	}

	timer := observ.NewTimer()

	phase := timer.Begin("load")
	mod, err := driver.Load(args[0])
	if err != nil {
		return err
	}
	timer.End(phase, mod.EntryName)

	phase = timer.Begin("build")
	x, err := exec.New(mod, exec.Options{Tracer: tracer})
	if err != nil {
		return err
	}
	timer.End(phase, "")

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

	phase = timer.Begin("run")
	for shot := 0; shot < cfg.Run.Shots; shot++ {
		if err := x.Run(quantum, runtime); err != nil {
			return fmt.Errorf("shot %d: %w", shot, err)
		}
	}
	timer.End(phase, fmt.Sprintf("%d shots", cfg.Run.Shots))

	if err := runtime.Flush(); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	if !quiet {
		p := message.NewPrinter(language.English)
		p.Fprintf(cmd.OutOrStdout(), "executed %d shots of %s\n", cfg.Run.Shots, x.EntryName())
	}
	if timings, _ := cmd.Flags().GetBool("timings"); timings {
		fmt.Fprint(cmd.OutOrStdout(), timer.Summary())
	}
	return nil
}
