// Command secmcp exposes security scanners as MCP tools.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deixis/secmcp"
	secmcpmcp "github.com/deixis/secmcp/internal/mcp"
)

// usageError marks errors caused by bad command-line input (exit 2).
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// rootOptions holds flags shared by all subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "secmcp",
		Short: "Expose security scanners as Model Context Protocol tools",
		Long: `secmcp runs network and web security scanners (nmap, nuclei, ffuf, ...)
as subprocesses and exposes them as MCP tools over stdio or HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       secmcp.Version,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: .secmcp.yaml searched upward, or $SECMCP_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		newServeCmd(opts),
		newToolsCmd(opts),
		newRunCmd(opts),
		newExecCmd(opts),
		newInstructionsCmd(),
		newVersionCmd(),
	)
	return root
}

func newInstructionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instructions",
		Short: "Print the model instructions published by the server",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), secmcpmcp.Instructions)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), secmcp.Version)
		},
	}
}

// noArgs is cobra.NoArgs reporting a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func exitCode(err error) int {
	var uerr usageError
	if errors.As(err, &uerr) {
		return 2
	}
	return 1
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "secmcp: %v\n", err)
		os.Exit(exitCode(err))
	}
}
