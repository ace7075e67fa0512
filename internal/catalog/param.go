package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// TimeoutParam is accepted by every subprocess tool and overrides its
// default timeout, bounded by the registry's maximum.
const TimeoutParam = "timeout_seconds"

// Kind is the value type of a tool parameter.
type Kind int

const (
	String Kind = iota
	Integer
	Boolean
	StringList
	IntegerList
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case StringList:
		return "string list"
	case IntegerList:
		return "integer list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Param describes one named tool argument.
type Param struct {
	Name        string
	Description string
	Kind        Kind
	Required    bool
	Default     string   // string form, converted like CLI input
	Enum        []string // allowed values for String params
}

// Values holds bound parameter values: string, int, bool, []string or []int.
type Values map[string]any

// Has reports whether name was supplied or defaulted.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// String returns the string value of name, or "".
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Int returns the integer value of name, or 0.
func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

// Bool returns the boolean value of name, or false.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Strings returns the string list value of name.
func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}

// ValidationError reports an argument that does not match its tool's schema.
type ValidationError struct {
	Tool    string
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s: %s", e.Tool, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Tool, e.Param, e.Message)
}

// Bind decodes raw JSON arguments and validates them against the spec.
func (s *Spec) Bind(raw json.RawMessage) (Values, error) {
	input := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&input); err != nil {
			return nil, &ValidationError{Tool: s.Name, Message: "arguments must be a JSON object: " + err.Error()}
		}
	}
	return s.bind(input)
}

// BindStrings validates key=value pairs, as given on a command line.
func (s *Spec) BindStrings(kv map[string]string) (Values, error) {
	input := make(map[string]any, len(kv))
	for k, v := range kv {
		input[k] = v
	}
	return s.bind(input)
}

func (s *Spec) bind(input map[string]any) (Values, error) {
	params := s.AllParams()
	known := make(map[string]Param, len(params))
	for _, p := range params {
		known[p.Name] = p
	}

	var unknown []string
	for name := range input {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{Tool: s.Name, Message: "unknown parameters: " + strings.Join(unknown, ", ")}
	}

	values := make(Values, len(params))
	for _, p := range params {
		raw, ok := input[p.Name]
		if !ok || raw == nil {
			if p.Default != "" {
				raw, ok = p.Default, true
			}
		}
		if !ok || raw == nil {
			if p.Required {
				return nil, &ValidationError{Tool: s.Name, Param: p.Name, Message: "is required"}
			}
			continue
		}

		v, err := convert(p, raw)
		if err != nil {
			return nil, &ValidationError{Tool: s.Name, Param: p.Name, Message: err.Error()}
		}
		if empty(v) {
			if p.Required {
				return nil, &ValidationError{Tool: s.Name, Param: p.Name, Message: "must not be empty"}
			}
			continue
		}
		if len(p.Enum) > 0 {
			if str, ok := v.(string); ok && !slices.Contains(p.Enum, str) {
				return nil, &ValidationError{
					Tool:    s.Name,
					Param:   p.Name,
					Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(p.Enum, ", "), str),
				}
			}
		}
		values[p.Name] = v
	}

	if s.Validate != nil {
		if err := s.Validate(values); err != nil {
			return nil, &ValidationError{Tool: s.Name, Message: err.Error()}
		}
	}
	return values, nil
}

func empty(v any) bool {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x) == ""
	case []string:
		return len(x) == 0
	case []int:
		return len(x) == 0
	}
	return false
}

func convert(p Param, raw any) (any, error) {
	switch p.Kind {
	case String:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	case Integer:
		return toInt(raw)
	case Boolean:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			v, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("must be a boolean")
			}
			return v, nil
		}
		return nil, fmt.Errorf("must be a boolean")
	case StringList:
		switch l := raw.(type) {
		case string:
			return splitList(l), nil
		case []any:
			out := make([]string, 0, len(l))
			for _, e := range l {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("must be a list of strings")
				}
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			return out, nil
		}
		return nil, fmt.Errorf("must be a list of strings")
	case IntegerList:
		var elems []any
		switch l := raw.(type) {
		case string:
			for _, s := range splitList(l) {
				elems = append(elems, s)
			}
		case []any:
			elems = l
		default:
			return nil, fmt.Errorf("must be a list of integers")
		}
		out := make([]int, 0, len(elems))
		for _, e := range elems {
			n, err := toInt(e)
			if err != nil {
				return nil, fmt.Errorf("must be a list of integers")
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported kind %s", p.Kind)
}

func toInt(raw any) (int, error) {
	switch n := raw.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return n, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return i, nil
	}
	return 0, fmt.Errorf("must be an integer")
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer")
	}
	// float64(math.MaxInt) rounds up to 2^63 on 64-bit platforms.
	if f < float64(math.MinInt) || f >= float64(math.MaxInt) {
		return 0, fmt.Errorf("out of range for an integer")
	}
	return int(f), nil
}

// splitList splits a comma or newline separated string, dropping blanks.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
