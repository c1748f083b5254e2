package cluster

import (
	"errors"
	"fmt"
)

var (
	ErrConfigNotFound = errors.New("invalid config")
	ErrInvalidAZ      = errors.New("invalid availability zone")
)

// ConfigNotFoundError is returned when a cluster file cannot be read.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("Invalid config: %s", e.Path)
}

func (e *ConfigNotFoundError) Is(target error) bool {
	return target == ErrConfigNotFound
}

// InvalidAZError is returned when an availability zone is not well formed.
type InvalidAZError struct {
	AZ string
}

func (e *InvalidAZError) Error() string {
	return fmt.Sprintf("AZ '%s' is invalid", e.AZ)
}

func (e *InvalidAZError) Is(target error) bool {
	return target == ErrInvalidAZ
}
