package runner

import (
	"fmt"
	"strings"
	"time"
)

// NoOutput is the text reported for a successful run that printed nothing.
const NoOutput = "Command completed with no output"

// Outcome classifies how an invocation ended. Exactly one applies per run.
type Outcome int

const (
	// Success means the process exited with code 0.
	Success Outcome = iota
	// NonZeroExit means the process ran and exited with a non-zero code.
	NonZeroExit
	// TimedOut means the deadline elapsed and the process group was killed.
	TimedOut
	// NotFound means the binary could not be located or executed.
	NotFound
	// Failed covers every other OS-level failure, including cancellation.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NonZeroExit:
		return "non_zero_exit"
	case TimedOut:
		return "timed_out"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Invocation is one request to execute an external binary.
// The Runner copies Args, so callers may reuse the slice afterwards.
type Invocation struct {
	Binary  string
	Args    []string
	Timeout time.Duration // zero uses the Runner default
	Stdin   string        // fed to the process when non-empty
}

// Argv returns the binary followed by its arguments.
func (inv Invocation) Argv() []string {
	return append([]string{inv.Binary}, inv.Args...)
}

// Result holds the classified outcome of an invocation.
type Result struct {
	RunID     string        // unique identifier for this run
	Binary    string        // binary as requested
	Outcome   Outcome       // which variant is populated
	ExitCode  int           // NonZeroExit only
	Stdout    []byte        // captured stdout (may be truncated)
	Stderr    []byte        // captured stderr (may be truncated)
	Truncated bool          // true if either stream exceeded the size cap
	Timeout   time.Duration // effective deadline
	Duration  time.Duration // wall-clock time spent
	Message   string        // diagnostic for Failed and NonZeroExit
}

// OK reports whether the process exited cleanly.
func (r *Result) OK() bool {
	return r.Outcome == Success
}

// Output returns stdout followed by stderr on a new line.
func (r *Result) Output() string {
	out := string(r.Stdout)
	if len(r.Stderr) > 0 {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += string(r.Stderr)
	}
	return out
}

// Text renders the result for a human reader: the captured output on
// success, or a status line describing what went wrong.
func (r *Result) Text() string {
	switch r.Outcome {
	case Success:
		out := r.Output()
		if out == "" {
			return NoOutput
		}
		return out
	case NonZeroExit:
		var b strings.Builder
		fmt.Fprintf(&b, "Command exited with code %d", r.ExitCode)
		if out := r.Output(); out != "" {
			fmt.Fprintf(&b, "\n\n%s", out)
		}
		return b.String()
	case TimedOut:
		return fmt.Sprintf("Command timed out after %s", r.Timeout)
	case NotFound:
		return fmt.Sprintf("binary not found: %s", r.Binary)
	default:
		return fmt.Sprintf("Error executing command: %s", r.Message)
	}
}
