package backend

import (
	"fmt"
	"strings"
)

// ConfigError reports invalid backend construction or topology wiring,
// e.g. a backend built with neither a name nor a parent. It is raised at
// construction time only and is never defaulted away.
type ConfigError struct {
	Message string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return "CONFIGURATION_ERROR: " + e.Message
}

func newConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// AmbiguityError is returned by Resolve when, after replacement
// resolution, more than one available, matching implementation remains on
// a backend with no replacement edge between them. It signals a packaging
// defect: two independent implementations compete for the same role and
// entity type, and the fix is an explicit replacement edge, not a
// priority heuristic.
type AmbiguityError struct {
	Backend    string
	Role       Role
	EntityType string
	Count      int
	// Candidates holds at least two of the competing implementations
	// for diagnostics.
	Candidates []Capability
}

// Error implements error.
func (e *AmbiguityError) Error() string {
	names := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		names = append(names, describeCapability(c))
	}
	return fmt.Sprintf("AMBIGUOUS_MATCH: %d implementations of role %q for entity type %q on backend %q: %s",
		e.Count, string(e.Role), e.EntityType, e.Backend, strings.Join(names, ", "))
}

func describeCapability(c Capability) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}
