package loadtest

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every configuration error, which is always
// reported before any request is sent.
var ErrInvalidConfig = errors.New("loadtest: invalid configuration")

// ConfigError describes one invalid sweep parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("loadtest: invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidConfig) true.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
