package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrStubFill          = errors.New("stub fill failed")
)
