package policy

import (
	"c3-policy-manager/internal/naming"
	"fmt"
	"strings"
)

const (
	// EmptyClause marks a rule without condition.
	EmptyClause = "empty"
	// InvalidClause is always rejected.
	InvalidClause = "invalid"
)

// Condition maps a condition operator to its key/value pair, for instance
// {"IpAddress": {"aws:SourceIp": "10.0.0.0/8"}}.
type Condition map[string]map[string]string

// BuildCondition parses a clause in the form "operator,key,value".
// Reserved network tokens in the value (such as **PUBLIC**) are expanded.
func BuildCondition(clause string) (Condition, error) {
	if clause == EmptyClause {
		return nil, ErrNoCondition
	}
	if clause == InvalidClause {
		return nil, fmt.Errorf("%w: %q", ErrInvalidConditionClause, clause)
	}
	fields := strings.Split(clause, ",")
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: %q has %d fields, expected 3", ErrInvalidConditionClause, clause, len(fields))
	}
	return Condition{
		fields[0]: {fields[1]: naming.ResolveCIDR(fields[2])},
	}, nil
}
