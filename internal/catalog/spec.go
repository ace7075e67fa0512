// Package catalog holds the declarative table of scanner tools and turns
// bound parameters into runner invocations.
package catalog

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/deixis/secmcp/internal/runner"
)

// Spec is the static definition of one subprocess tool.
type Spec struct {
	Name        string
	Title       string
	Description string
	Binary      string
	Params      []Param
	Args        []Arg
	Stdin       string        // param fed on stdin, one item per line
	Timeout     time.Duration // default deadline
	OKExitCodes []int         // non-zero codes that still mean a completed scan
	Validate    func(Values) error
}

// Arg is one element of a spec's argv template. Elements are emitted in
// order; an element whose Param is unset, false or empty emits nothing.
type Arg struct {
	Literal string              // emitted verbatim when Param is empty
	Flag    string              // emitted before the value (alone for booleans)
	Param   string              // source parameter
	Sep     string              // joins list values; default ","
	Each    bool                // emit Flag and value once per list element
	Split   bool                // split the value into shell words
	Format  func(string) string // rewrites each value before emission
	When    func(Values) bool   // guards the element
}

// Lit emits a fixed argument.
func Lit(s string) Arg { return Arg{Literal: s} }

// Pos emits the value of param as a positional argument.
func Pos(param string) Arg { return Arg{Param: param} }

// Flag emits flag followed by the value of param, or flag alone for booleans.
func Flag(flag, param string) Arg { return Arg{Flag: flag, Param: param} }

// Extra splits a free-form argument string into separate arguments.
func Extra(param string) Arg { return Arg{Param: param, Split: true} }

// If returns a copy of a guarded by cond.
func (a Arg) If(cond func(Values) bool) Arg {
	a.When = cond
	return a
}

// Equals is a When predicate matching a string parameter value.
func Equals(param, value string) func(Values) bool {
	return func(v Values) bool { return v.String(param) == value }
}

// AllParams returns the declared params plus the implicit timeout param.
func (s *Spec) AllParams() []Param {
	params := make([]Param, 0, len(s.Params)+1)
	params = append(params, s.Params...)
	return append(params, Param{
		Name:        TimeoutParam,
		Description: fmt.Sprintf("Override the default timeout of %s, in seconds.", s.Timeout),
		Kind:        Integer,
	})
}

// Param returns the declared param named name.
func (s *Spec) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// AcceptsExit reports whether a non-zero exit code counts as a completed run.
func (s *Spec) AcceptsExit(code int) bool {
	return slices.Contains(s.OKExitCodes, code)
}

// Argv builds the argument list (without the binary) from bound values.
func (s *Spec) Argv(v Values) ([]string, error) {
	var argv []string
	for _, a := range s.Args {
		if a.When != nil && !a.When(v) {
			continue
		}
		if a.Param == "" {
			if a.Literal != "" {
				argv = append(argv, a.Literal)
			}
			continue
		}
		val, ok := v[a.Param]
		if !ok {
			continue
		}
		emitted, err := a.emit(val)
		if err != nil {
			return nil, &ValidationError{Tool: s.Name, Param: a.Param, Message: err.Error()}
		}
		argv = append(argv, emitted...)
	}
	return argv, nil
}

func (a Arg) format(s string) string {
	if a.Format != nil {
		return a.Format(s)
	}
	return s
}

func (a Arg) withFlag(vals ...string) []string {
	if a.Flag == "" {
		return vals
	}
	return append([]string{a.Flag}, vals...)
}

func (a Arg) emit(val any) ([]string, error) {
	switch x := val.(type) {
	case bool:
		if x && a.Flag != "" {
			return []string{a.Flag}, nil
		}
		return nil, nil
	case int:
		return a.withFlag(strconv.Itoa(x)), nil
	case string:
		if !a.Split {
			return a.withFlag(a.format(x)), nil
		}
		words, err := shlex.Split(x)
		if err != nil {
			return nil, fmt.Errorf("cannot split arguments: %w", err)
		}
		if len(words) == 0 {
			return nil, nil
		}
		return a.withFlag(words...), nil
	case []string:
		return a.emitList(x), nil
	case []int:
		strs := make([]string, len(x))
		for i, n := range x {
			strs[i] = strconv.Itoa(n)
		}
		return a.emitList(strs), nil
	}
	return nil, fmt.Errorf("unsupported value %T", val)
}

func (a Arg) emitList(items []string) []string {
	if a.Each {
		var out []string
		for _, it := range items {
			out = append(out, a.withFlag(a.format(it))...)
		}
		return out
	}
	formatted := make([]string, len(items))
	for i, it := range items {
		formatted[i] = a.format(it)
	}
	sep := a.Sep
	if sep == "" {
		sep = ","
	}
	return a.withFlag(strings.Join(formatted, sep))
}

// StdinText renders the stdin param as newline separated lines.
func (s *Spec) StdinText(v Values) string {
	if s.Stdin == "" {
		return ""
	}
	var items []string
	switch x := v[s.Stdin].(type) {
	case []string:
		items = x
	case string:
		items = splitList(x)
	}
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, "\n") + "\n"
}

// Seconds converts a caller-supplied number of seconds to a Duration,
// saturating instead of overflowing for very large values.
func Seconds(secs int) time.Duration {
	if int64(secs) > math.MaxInt64/int64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs) * time.Second
}

// Invocation builds the runner invocation for bound values. maxTimeout
// caps caller-supplied timeouts; zero means uncapped.
func (s *Spec) Invocation(v Values, maxTimeout time.Duration) (runner.Invocation, error) {
	args, err := s.Argv(v)
	if err != nil {
		return runner.Invocation{}, err
	}

	timeout := s.Timeout
	if secs := v.Int(TimeoutParam); secs > 0 {
		timeout = Seconds(secs)
	} else if v.Has(TimeoutParam) {
		return runner.Invocation{}, &ValidationError{Tool: s.Name, Param: TimeoutParam, Message: "must be positive"}
	}
	if maxTimeout > 0 && timeout > maxTimeout {
		timeout = maxTimeout
	}

	return runner.Invocation{
		Binary:  s.Binary,
		Args:    args,
		Timeout: timeout,
		Stdin:   s.StdinText(v),
	}, nil
}

// InputSchema returns the JSON Schema advertised for the tool's arguments.
func (s *Spec) InputSchema() map[string]any {
	props := make(map[string]any)
	var required []string
	for _, p := range s.AllParams() {
		prop := map[string]any{"description": p.Description}
		switch p.Kind {
		case String:
			prop["type"] = "string"
		case Integer:
			prop["type"] = "integer"
		case Boolean:
			prop["type"] = "boolean"
		case StringList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		case IntegerList:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "integer"}
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != "" {
			if d, err := convert(p, p.Default); err == nil {
				prop["default"] = d
			}
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
