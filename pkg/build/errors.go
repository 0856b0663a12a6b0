package build

import (
	"errors"
	"fmt"
)

// ErrInvalidBuild is the sentinel wrapped by every InvalidBuildError.
var ErrInvalidBuild = errors.New("invalid build")

// InvalidBuildError describes malformed build input.
type InvalidBuildError struct {
	Build  string // "radial", "vertical" or "shape"
	Index  int    // offending entry, -1 when not tied to one entry
	Reason string
}

func (e *InvalidBuildError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s build: entry %d: %s", e.Build, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s build: %s", e.Build, e.Reason)
}

func (e *InvalidBuildError) Unwrap() error {
	return ErrInvalidBuild
}

func invalid(build string, index int, format string, args ...any) *InvalidBuildError {
	return &InvalidBuildError{Build: build, Index: index, Reason: fmt.Sprintf(format, args...)}
}
