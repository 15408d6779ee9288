// pkg/xui_err/user.go
//
// Expected user errors: failures caused by the environment or the operator
// (declined confirmation, bad flag value) rather than bugs. They are printed
// without stack traces and exit with the validation code.

package xui_err

import (
	"context"
	"errors"

	cerr "github.com/cockroachdb/errors"
)

// UserError marks an error as expected and user-facing.
type UserError struct {
	Err error
}

func (u *UserError) Error() string { return u.Err.Error() }
func (u *UserError) Unwrap() error { return u.Err }

// NewUserError creates an expected user error from a message.
func NewUserError(format string, args ...interface{}) error {
	return &UserError{Err: cerr.Newf(format, args...)}
}

// NewExpectedError marks err as an expected user error. Returns nil for nil.
func NewExpectedError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &UserError{Err: err}
}

// IsExpectedUserError reports whether err is (or wraps) a UserError.
func IsExpectedUserError(err error) bool {
	if err == nil {
		return false
	}
	var ue *UserError
	return errors.As(err, &ue)
}
