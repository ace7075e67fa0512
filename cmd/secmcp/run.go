package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/secmcp/internal/catalog"
	"github.com/deixis/secmcp/internal/runner"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <tool> [key=value ...]",
		Short: "Run one scanner tool from the command line",
		Example: `  secmcp run do_nmap target=scanme.nmap.org nmap_args="-sV -p 22,80"
  secmcp run do_httpx targets=example.com,example.org probes=status-code,title`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{errors.New("run requires a tool name")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			spec, ok := a.registry.Lookup(args[0])
			if !ok {
				return usageError{fmt.Errorf("unknown tool %q (see secmcp tools)", args[0])}
			}
			kv, err := parseKeyValues(args[1:])
			if err != nil {
				return usageError{err}
			}
			values, err := spec.BindStrings(kv)
			if err != nil {
				return usageError{err}
			}
			inv, err := spec.Invocation(values, a.registry.MaxTimeout())
			if err != nil {
				return usageError{err}
			}
			ctx, stop := signalContext(cmd)
			defer stop()
			res := a.newRunner().Run(ctx, inv)
			return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), spec, res)
		},
	}
}

func newExecCmd(root *rootOptions) *cobra.Command {
	var (
		timeout time.Duration
		stdin   string
	)
	cmd := &cobra.Command{
		Use:   "exec [flags] -- <binary> [args ...]",
		Short: "Run any binary through the runner, without a shell",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{errors.New("exec requires a binary")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			if timeout < 0 {
				return usageError{errors.New("--timeout must be positive")}
			}
			inv := runner.Invocation{
				Binary:  args[0],
				Args:    args[1:],
				Timeout: timeout,
				Stdin:   stdin,
			}
			ctx, stop := signalContext(cmd)
			defer stop()
			res := a.newRunner().Run(ctx, inv)
			return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), nil, res)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "kill the process after this long (default: config timeout)")
	cmd.Flags().StringVar(&stdin, "stdin", "", "text written to the process's standard input")
	return cmd
}

// report prints the rendered result and returns an error unless the run
// succeeded or exited with a code the tool accepts.
func report(stdout, stderr io.Writer, spec *catalog.Spec, res *runner.Result) error {
	text := res.Text()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Fprint(stdout, text)

	if res.Outcome == runner.NotFound {
		fmt.Fprintln(stderr, strings.TrimSpace(catalog.NewErrToolUnavailable(res.Binary).Hint()))
	}
	if res.Truncated {
		fmt.Fprintln(stderr, "warning: output truncated")
	}

	if res.OK() || (spec != nil && res.Outcome == runner.NonZeroExit && spec.AcceptsExit(res.ExitCode)) {
		return nil
	}
	return fmt.Errorf("%s: %s", res.Binary, res.Outcome)
}

// parseKeyValues splits key=value arguments. Values may contain '='.
func parseKeyValues(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", arg)
		}
		if _, dup := kv[key]; dup {
			return nil, fmt.Errorf("argument %q given twice", key)
		}
		kv[key] = value
	}
	return kv, nil
}

// signalContext returns the command context, canceled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
