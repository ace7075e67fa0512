package catalog

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/deixis/secmcp/internal/config"
)

// Registry is the set of tools exposed by a server. It is built once at
// startup and read-only afterwards.
type Registry struct {
	specs      []*Spec
	byName     map[string]*Spec
	maxTimeout time.Duration
}

// NewRegistry applies per-tool configuration to specs and indexes the
// result. Disabled tools are left out.
func NewRegistry(specs []Spec, cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	r := &Registry{
		byName:     make(map[string]*Spec, len(specs)),
		maxTimeout: cfg.MaxTimeout(),
	}

	declared := make(map[string]bool, len(specs))
	for _, s := range specs {
		if declared[s.Name] {
			return nil, fmt.Errorf("tool %s registered twice", s.Name)
		}
		declared[s.Name] = true
	}
	for name := range cfg.Tools {
		if !declared[name] {
			return nil, fmt.Errorf("tools.%s: unknown tool", name)
		}
	}

	for _, s := range specs {
		tc := cfg.Tool(s.Name)
		if tc.Disabled {
			continue
		}
		spec, err := applyOverrides(s, tc)
		if err != nil {
			return nil, err
		}
		r.specs = append(r.specs, spec)
		r.byName[spec.Name] = spec
	}
	return r, nil
}

func applyOverrides(s Spec, tc config.ToolConfig) (*Spec, error) {
	if tc.Binary != "" {
		s.Binary = tc.Binary
	}
	if d := tc.Timeout(); d > 0 {
		s.Timeout = d
	}
	if len(tc.OKExitCodes) > 0 {
		s.OKExitCodes = append(slices.Clone(s.OKExitCodes), tc.OKExitCodes...)
	}
	if len(tc.Defaults) > 0 {
		s.Params = slices.Clone(s.Params)
		names := make([]string, 0, len(tc.Defaults))
		for name := range tc.Defaults {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			idx := slices.IndexFunc(s.Params, func(p Param) bool { return p.Name == name })
			if idx < 0 {
				return nil, fmt.Errorf("tools.%s.defaults: unknown parameter %q", s.Name, name)
			}
			p := s.Params[idx]
			p.Default = tc.Defaults[name]
			if _, err := convert(p, p.Default); err != nil {
				return nil, fmt.Errorf("tools.%s.defaults.%s: %v", s.Name, name, err)
			}
			s.Params[idx] = p
		}
	}
	return &s, nil
}

// Lookup returns the tool named name.
func (r *Registry) Lookup(name string) (*Spec, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// All returns the registered tools in table order.
func (r *Registry) All() []*Spec {
	return r.specs
}

// MaxTimeout is the upper bound applied to caller-supplied timeouts.
func (r *Registry) MaxTimeout() time.Duration {
	return r.maxTimeout
}

// Binaries returns the distinct binaries the registry may execute.
func (r *Registry) Binaries() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range r.specs {
		if !seen[s.Binary] {
			seen[s.Binary] = true
			out = append(out, s.Binary)
		}
	}
	return out
}

// SpecForBinary returns the tool that runs binary.
func (r *Registry) SpecForBinary(binary string) (*Spec, bool) {
	for _, s := range r.specs {
		if s.Binary == binary {
			return s, true
		}
	}
	return nil, false
}
