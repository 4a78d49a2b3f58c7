package errors

import (
	"errors"
	"fmt"
)

// fatalError is an error that should be printed to the user, then the
// program should exit with an error code.
type fatalError struct {
	msg string
	err error
}

func (e *fatalError) Error() string {
	return e.msg
}

func (e *fatalError) Unwrap() error {
	return e.err
}

// IsFatal returns true if err is a fatal message that should be printed to
// the user. Then, the program should exit.
func IsFatal(err error) bool {
	var fatal *fatalError
	return errors.As(err, &fatal)
}

// Fatalf returns an error that is marked fatal, preserving the last error
// found in data as the underlying error.
func Fatalf(s string, data ...any) error {
	var underlying error
	for i := len(data) - 1; i >= 0; i-- {
		if err, ok := data[i].(error); ok {
			underlying = err
			break
		}
	}
	return Wrap(&fatalError{msg: fmt.Sprintf(s, data...), err: underlying}, "Fatal")
}
