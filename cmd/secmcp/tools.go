package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deixis/secmcp/internal/catalog"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

func newToolsCmd(root *rootOptions) *cobra.Command {
	var missingOnly bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the scanner tools and whether their binaries are installed",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			printTools(cmd.OutOrStdout(), a.registry.All(), missingOnly)
			return nil
		},
	}
	cmd.Flags().BoolVar(&missingOnly, "missing", false, "only list tools whose binary is not installed")
	return cmd
}

func printTools(w io.Writer, specs []*catalog.Spec, missingOnly bool) {
	nameWidth, binWidth := len("TOOL"), len("BINARY")
	for _, s := range specs {
		nameWidth = max(nameWidth, len(s.Name))
		binWidth = max(binWidth, len(s.Binary))
	}

	fmt.Fprintln(w, bold(fmt.Sprintf("%-*s  %-*s  %-8s  %s", nameWidth, "TOOL", binWidth, "BINARY", "TIMEOUT", "STATUS")))
	missing := 0
	for _, s := range specs {
		path := catalog.Resolve(s.Binary)
		if path != "" && missingOnly {
			continue
		}
		status := green("installed ") + path
		if path == "" {
			missing++
			status = red("missing")
		}
		fmt.Fprintf(w, "%-*s  %-*s  %-8s  %s\n", nameWidth, s.Name, binWidth, s.Binary, s.Timeout, status)
	}

	if missing > 0 {
		fmt.Fprintf(w, "\n%d of %d binaries missing. Install hints:\n", missing, len(specs))
		for _, s := range specs {
			if catalog.Available(s.Binary) {
				continue
			}
			hint := strings.TrimSpace(catalog.NewErrToolUnavailable(s.Binary).Hint())
			if hint == "" {
				continue
			}
			fmt.Fprintf(w, "  %s: %s\n", s.Binary, strings.ReplaceAll(strings.TrimPrefix(hint, "Install:\n  "), "\n  ", " | "))
		}
	}
}
