package design

import (
	"errors"
	"fmt"

	"github.com/chazu/toroid/pkg/build"
)

// ValidationSeverity indicates whether a validation finding blocks a build
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks the build
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Reactor  string // which reactor has the problem (empty if design-level)
	Message  string
	Severity ValidationSeverity
	Err      error // underlying error, if any
}

func (e ValidationError) Error() string {
	if e.Reactor == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] reactor %s: %s", e.Severity, e.Reactor, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Reactor string
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory) from
// all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err joins the blocking errors, or returns nil.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Validate runs the structural checks and returns the findings. An empty
// slice means the design is valid. It never mutates the design.
func Validate(d *Design) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(d)...)
	errs = append(errs, validateBuilds(d)...)
	return errs
}

// ValidateAll runs every tier (structural, build, material) and returns the
// findings separated into errors and warnings.
func ValidateAll(d *Design) ValidationResult {
	var result ValidationResult
	result.Errors = append(result.Errors, Validate(d)...)

	for _, r := range d.Reactors {
		names, err := r.PartNames()
		if err != nil {
			// Already reported by validateBuilds.
			continue
		}
		errs, warns := validateParts(r, names)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
	}
	return result
}

func validateNames(d *Design) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool, len(d.Reactors))
	for _, r := range d.Reactors {
		if r.Name == "" {
			errs = append(errs, ValidationError{Message: "reactor has no name", Severity: SeverityError})
			continue
		}
		if seen[r.Name] {
			errs = append(errs, ValidationError{
				Reactor:  r.Name,
				Message:  "duplicate reactor name",
				Severity: SeverityError,
			})
		}
		seen[r.Name] = true
	}
	return errs
}

func validateBuilds(d *Design) []ValidationError {
	var errs []ValidationError
	for _, r := range d.Reactors {
		if err := build.Validate(r.Request); err != nil {
			errs = append(errs, ValidationError{
				Reactor:  r.Name,
				Message:  err.Error(),
				Severity: SeverityError,
				Err:      err,
			})
		}
	}
	return errs
}

// validateParts checks removals and material tags against the parts that
// will be built.
func validateParts(r *Reactor, remaining []string) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warns []ValidationWarning

	res, _ := build.Resolve(r.Request)
	known := make(map[string]bool, len(res.Profiles))
	for _, name := range res.Names() {
		known[name] = true
	}
	plasmaRemoved := false
	for _, name := range r.Remove {
		if name == build.PlasmaName {
			plasmaRemoved = true
		}
		if !known[name] {
			warns = append(warns, ValidationWarning{
				Reactor: r.Name,
				Message: fmt.Sprintf("remove %q matches no part", name),
			})
		}
	}
	if !plasmaRemoved {
		warns = append(warns, ValidationWarning{
			Reactor: r.Name,
			Message: "plasma is not removed and will be meshed as a part",
		})
	}

	if len(remaining) == 0 {
		errs = append(errs, ValidationError{
			Reactor:  r.Name,
			Message:  "no parts left to mesh",
			Severity: SeverityError,
		})
	}
	if len(r.MaterialTags) > 0 && len(r.MaterialTags) != len(remaining) {
		errs = append(errs, ValidationError{
			Reactor:  r.Name,
			Message:  fmt.Sprintf("%d material tags for %d parts", len(r.MaterialTags), len(remaining)),
			Severity: SeverityError,
		})
	}
	for i, tag := range r.MaterialTags {
		if tag == "" {
			errs = append(errs, ValidationError{
				Reactor:  r.Name,
				Message:  fmt.Sprintf("material tag %d is empty", i),
				Severity: SeverityError,
			})
		}
	}
	return errs, warns
}
