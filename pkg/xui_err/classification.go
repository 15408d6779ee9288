// pkg/xui_err/classification.go
//
// Error classification with per-category process exit codes so calling
// scripts and automation can branch on the failure kind.

package xui_err

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies errors for exit-code mapping and remediation.
type Category int

const (
	// CategorySystem - OS/filesystem issues (exit 1)
	CategorySystem Category = iota
	// CategoryValidation - bad input or refused confirmation (exit 2)
	CategoryValidation
	// CategoryPlatform - unsupported OS family or architecture (exit 10)
	CategoryPlatform
	// CategoryDependency - required dependency failed to install (exit 11)
	CategoryDependency
	// CategoryPrivilege - elevation rule could not be written or validated (exit 12)
	CategoryPrivilege
	// CategoryService - autostart registration failed (exit 13)
	CategoryService
	// CategoryLock - another installer run holds the lock (exit 14)
	CategoryLock
)

// ExitCode returns the process exit code for the category.
func (c Category) ExitCode() int {
	switch c {
	case CategoryValidation:
		return 2
	case CategoryPlatform:
		return 10
	case CategoryDependency:
		return 11
	case CategoryPrivilege:
		return 12
	case CategoryService:
		return 13
	case CategoryLock:
		return 14
	default:
		return 1
	}
}

// String returns a short machine-friendly name for the category.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryPlatform:
		return "platform"
	case CategoryDependency:
		return "dependency"
	case CategoryPrivilege:
		return "privilege"
	case CategoryService:
		return "service"
	case CategoryLock:
		return "lock"
	default:
		return "system"
	}
}

// ClassifiedError wraps an error with its category and remediation steps.
type ClassifiedError struct {
	Category    Category
	Message     string
	Cause       error
	Remediation []string
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error.
func (e *ClassifiedError) ExitCode() int {
	return e.Category.ExitCode()
}

// RemediationHint renders the remediation steps as a single actionable message.
func (e *ClassifiedError) RemediationHint() string {
	if len(e.Remediation) == 0 {
		return ""
	}
	if len(e.Remediation) == 1 {
		return e.Remediation[0]
	}
	var sb strings.Builder
	sb.WriteString("How to fix:")
	for i, step := range e.Remediation {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
	}
	return sb.String()
}

// ExitCode walks the error chain and returns the exit code of the first
// classified error, or 1 for unclassified failures. nil means success.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.ExitCode()
	}
	if IsExpectedUserError(err) {
		return CategoryValidation.ExitCode()
	}
	return 1
}

// CategoryOf returns the category of the first classified error in the
// chain, CategorySystem otherwise.
func CategoryOf(err error) Category {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategorySystem
}

// RemediationOf returns the remediation hint carried by the error chain,
// or the empty string.
func RemediationOf(err error) string {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.RemediationHint()
	}
	return ""
}
