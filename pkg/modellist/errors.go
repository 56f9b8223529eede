package modellist

import "errors"

var (
	// ErrInvalidArgument is recorded when a function argument is nil.
	ErrInvalidArgument = errors.New("modellist: invalid argument")

	// ErrIndexOutOfRange is recorded by Set for an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("modellist: index out of range")
)
