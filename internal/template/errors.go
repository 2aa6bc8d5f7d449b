package template

import (
	"errors"
	"fmt"
)

// ErrFinalized is returned when a finalized evaluation is mutated.
var ErrFinalized = errors.New("evaluation is finalized")

// ErrNotFinalized is returned when verdicts are read before Finalize.
var ErrNotFinalized = errors.New("evaluation is not finalized")

// LoadError indicates a template document could not be read or parsed.
// Fatal at load time.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load template %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NotFoundError indicates a requested template is not registered.
type NotFoundError struct {
	ID      string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version == "" {
		return fmt.Sprintf("template %q not found", e.ID)
	}
	return fmt.Sprintf("template %q version %s not found", e.ID, e.Version)
}

// SecurityError indicates a template reference points at an untrusted
// origin. Templates load from local paths only.
type SecurityError struct {
	Ref string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("refusing to load template from untrusted origin %q", e.Ref)
}
