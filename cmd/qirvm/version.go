package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qirvm/internal/version"
)

var (
	versionFormat   string
	versionShowFull bool
)

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "include build metadata")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show qirvm build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := strings.TrimSpace(version.Version)
		if v == "" {
			v = "dev"
		}
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFormat) {
		case "json":
			payload := map[string]string{"tool": "qirvm", "version": v}
			if versionShowFull {
				payload["git_commit"] = version.GitCommit
				payload["build_date"] = version.BuildDate
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		case "pretty":
			fmt.Fprintf(out, "qirvm %s\n", v)
			if versionShowFull {
				fmt.Fprintf(out, "commit: %s\n", orUnknown(version.GitCommit))
				fmt.Fprintf(out, "built:  %s\n", orUnknown(version.BuildDate))
			}
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
