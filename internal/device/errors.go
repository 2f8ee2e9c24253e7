package device

import "errors"

// ErrUnavailable marks a backend that is not present on this host.
// Probe failures wrapping it are expected and logged quietly.
var ErrUnavailable = errors.New("backend unavailable")

// ErrNotSupported marks a probe without utilization support.
var ErrNotSupported = errors.New("utilization not supported")

// notFoundError signals an unknown device id for 404 mapping.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "device not found: " + e.id }

// ErrDeviceNotFound constructs a notFoundError.
func ErrDeviceNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing device id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// unsatisfiableError signals a preference no catalog entry matches, for
// 409 mapping. The previous preference stays in effect.
type unsatisfiableError struct{ pref string }

func (e unsatisfiableError) Error() string { return "no device satisfies preference: " + e.pref }

// ErrPreferenceUnsatisfiable constructs an unsatisfiableError.
func ErrPreferenceUnsatisfiable(pref string) error { return unsatisfiableError{pref: pref} }

// IsPreferenceUnsatisfiable reports whether err indicates an unsatisfiable preference.
func IsPreferenceUnsatisfiable(err error) bool {
	_, ok := err.(unsatisfiableError)
	return ok
}

// unknownPreferenceError signals a preference id outside the known set,
// for 404 mapping (an unknown preference is an unknown resource, same
// as an unknown device id).
type unknownPreferenceError struct{ pref string }

func (e unknownPreferenceError) Error() string { return "unknown preference: " + e.pref }

// ErrUnknownPreference constructs an unknownPreferenceError.
func ErrUnknownPreference(pref string) error { return unknownPreferenceError{pref: pref} }

// IsUnknownPreference reports whether err indicates an unknown preference id.
func IsUnknownPreference(err error) bool {
	_, ok := err.(unknownPreferenceError)
	return ok
}
