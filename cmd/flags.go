package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stephenmfriend/agent-commander/agent"
)

// isolationValue is an --isolation flag restricted to a set of modes. Set
// accepts any string so that start can report every invalid option at
// once; Validate checks the value.
type isolationValue struct {
	value   string
	allowed []agent.Isolation
}

var _ pflag.Value = (*isolationValue)(nil)

func newIsolationValue(def string, allowed ...agent.Isolation) *isolationValue {
	return &isolationValue{value: def, allowed: allowed}
}

func (v *isolationValue) String() string { return v.value }

func (v *isolationValue) Set(s string) error {
	v.value = strings.TrimSpace(s)
	return nil
}

func (v *isolationValue) Type() string { return strings.Join(v.names(), "|") }

func (v *isolationValue) names() []string {
	names := make([]string, len(v.allowed))
	for i, a := range v.allowed {
		names[i] = string(a)
	}
	return names
}

// Validate returns the isolation mode, or an error naming the allowed modes.
func (v *isolationValue) Validate() (agent.Isolation, error) {
	for _, a := range v.allowed {
		if string(a) == v.value {
			return a, nil
		}
	}
	return "", fmt.Errorf("--isolation must be one of: %s", strings.Join(v.names(), ", "))
}
