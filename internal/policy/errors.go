package policy

import "errors"

var (
	// ErrInvalidConditionClause is returned when a clause does not have exactly three fields or is the invalid marker.
	ErrInvalidConditionClause = errors.New("invalid condition clause")

	// ErrNoCondition is returned by [BuildCondition] for the empty marker, meaning no condition was requested.
	ErrNoCondition = errors.New("no condition requested")

	ErrInvalidEffect   = errors.New("invalid effect")
	ErrEmptyActionList = errors.New("empty action list")
)
