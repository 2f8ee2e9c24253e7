package registry

// notFoundError signals an unknown unit id for 404 mapping.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "model not found: " + e.id }

// ErrUnitNotFound constructs a notFoundError.
func ErrUnitNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing unit id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// invalidRequestError signals a semantically invalid request for 400 mapping.
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return "invalid request: " + e.msg }

// ErrInvalidRequest constructs an invalidRequestError.
func ErrInvalidRequest(msg string) error { return invalidRequestError{msg: msg} }

// IsInvalidRequest reports whether err indicates a rejected request.
func IsInvalidRequest(err error) bool {
	_, ok := err.(invalidRequestError)
	return ok
}

// conflictError signals an operation clashing with unit state, for 409 mapping.
type conflictError struct{ msg string }

func (e conflictError) Error() string { return e.msg }

// ErrConflict constructs a conflictError.
func ErrConflict(msg string) error { return conflictError{msg: msg} }

// IsConflict reports whether err indicates a state conflict.
func IsConflict(err error) bool {
	_, ok := err.(conflictError)
	return ok
}

// unsupportedFormatError signals an unknown export format for 400 mapping.
type unsupportedFormatError struct{ format string }

func (e unsupportedFormatError) Error() string { return "unsupported export format: " + e.format }

// ErrUnsupportedFormat constructs an unsupportedFormatError.
func ErrUnsupportedFormat(format string) error { return unsupportedFormatError{format: format} }

// IsUnsupportedFormat reports whether err indicates an unknown export format.
func IsUnsupportedFormat(err error) bool {
	_, ok := err.(unsupportedFormatError)
	return ok
}
