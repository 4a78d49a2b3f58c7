// Package errors wraps github.com/pkg/errors so that call sites get stack
// traces, and adds fatal errors: errors the command line reports to the user
// as-is before exiting.
package errors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// New creates a new error based on message.
var New = errors.New

// Errorf creates an error based on a format string and values.
var Errorf = errors.Errorf

// Wrap annotates err with message. If err is nil, Wrap returns nil.
var Wrap = errors.Wrap

// Wrapf annotates err with the format specifier. If err is nil, Wrapf
// returns nil.
var Wrapf = errors.Wrapf

// WithStack annotates err with a stack trace at the point WithStack was called.
var WithStack = errors.WithStack

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }
