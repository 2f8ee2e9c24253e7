package builder

// unsupportedTypeError signals an unknown unit type for 400 mapping.
type unsupportedTypeError struct{ t string }

func (e unsupportedTypeError) Error() string { return "unsupported model type: " + e.t }

// ErrUnsupportedType constructs an unsupportedTypeError.
func ErrUnsupportedType(t string) error { return unsupportedTypeError{t: t} }

// IsUnsupportedType reports whether err indicates an unknown unit type.
func IsUnsupportedType(err error) bool {
	_, ok := err.(unsupportedTypeError)
	return ok
}

// invalidArchitectureError signals a rejected architecture value.
type invalidArchitectureError struct{ msg string }

func (e invalidArchitectureError) Error() string { return "invalid architecture: " + e.msg }

// ErrInvalidArchitecture constructs an invalidArchitectureError.
func ErrInvalidArchitecture(msg string) error { return invalidArchitectureError{msg: msg} }

// IsInvalidArchitecture reports whether err indicates a rejected architecture.
func IsInvalidArchitecture(err error) bool {
	_, ok := err.(invalidArchitectureError)
	return ok
}
