package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"qirvm/internal/driver"
	"qirvm/internal/qir"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <program.ll> [more.ll ...]",
	Short: "Show a QIR program's entry point, attributes, and symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("no-cache", false, "bypass the module metadata cache")
}

var (
	inspectTitle = lipgloss.NewStyle().Bold(true)
	inspectKey   = lipgloss.NewStyle().Width(22).Faint(true)
	inspectBad   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func runInspect(cmd *cobra.Command, args []string) error {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	var cache *driver.DiskCache
	if !noCache {
		// A cache that cannot be opened just means fresh parses.
		cache, _ = driver.OpenDiskCache("qirvm")
	}

	infos := make([]*driver.ModuleInfo, len(args))
	var g errgroup.Group
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			info, err := driver.Describe(path, cache)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, inspectTitle.Render(info.Path))
		line(out, "entry point", info.EntryName)
		if info.Candidates > 1 {
			line(out, "entry candidates", fmt.Sprintf("%d (first wins)", info.Candidates))
		}
		if major, ok := info.FlagInts[qir.FlagQIRMajorVersion]; ok {
			minor := info.FlagInts[qir.FlagQIRMinorVersion]
			line(out, "qir version", fmt.Sprintf("%d.%d", major, minor))
		}
		for _, key := range sortedKeys(info.Attrs) {
			if key == qir.AttrEntryPoint {
				continue
			}
			v := info.Attrs[key]
			if v == "" {
				v = "(set)"
			}
			line(out, key, v)
		}
		quantum := 0
		for _, name := range info.Declarations {
			if strings.HasPrefix(name, "__quantum__") {
				quantum++
			}
		}
		line(out, "quantum symbols", fmt.Sprintf("%d", quantum))
		for _, name := range info.Unbound {
			fmt.Fprintf(out, "  %s %s\n", inspectKey.Render("unbound"), inspectBad.Render(name))
		}
	}
	return nil
}

func line(out io.Writer, key, value string) {
	fmt.Fprintf(out, "  %s %s\n", inspectKey.Render(key), value)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
