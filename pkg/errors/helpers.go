package errors

import stderrors "errors"

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join returns an error that wraps the given errors.
func Join(errs ...error) error { return stderrors.Join(errs...) }

// IsCode checks if the error has the given error code.
func IsCode(err error, code int) bool {
	var e *Errno
	if As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the error code from an error, or -1 if it carries none.
func GetCode(err error) int {
	var e *Errno
	if As(err, &e) {
		return e.Code
	}
	return -1
}
