package quality

import "fmt"

// ConfigurationError indicates invalid assessment configuration: bad
// weights, a malformed template, or an unknown rule kind. It is raised
// before any scoring occurs and is never retried.
type ConfigurationError struct {
	Msg string
	Err error
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// WrapConfigurationError wraps an underlying error as a configuration error.
func WrapConfigurationError(err error, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError indicates a rule hit an unexpected data shape. It is
// recovered locally as a failing RuleResult; the dimension continues
// evaluating its remaining rules.
type ValidationError struct {
	RuleID string
	Msg    string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation error in rule %s: %s: %v", e.RuleID, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation error in rule %s: %s", e.RuleID, e.Msg)
}

func (e *ValidationError) Unwrap() error { return e.Err }
