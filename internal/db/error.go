package db

import "errors"

// ErrSkipUpdate may be returned by a mutator passed to UpdateEconomyDoc to
// abort the cycle without writing. The adapter then reports the document it
// read and no error: expected business failures must not bump the version
// or trigger conflict retries.
var ErrSkipUpdate = errors.New("skip update")

// Not found Error
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// ContentionExhaustedError is returned when an update kept losing the
// version race until its retry budget ran out.
type ContentionExhaustedError struct {
	Key     string
	Message string
}

func (e *ContentionExhaustedError) Error() string {
	return e.Message
}

func IsContentionExhaustedError(err error) bool {
	var target *ContentionExhaustedError
	return errors.As(err, &target)
}
