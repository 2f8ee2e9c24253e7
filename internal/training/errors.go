package training

// notFoundError signals an unknown training id for 404 mapping.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "training job not found: " + e.id }

// ErrJobNotFound constructs a notFoundError.
func ErrJobNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing training id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// alreadyTrainingError signals a second concurrent job for one unit,
// for 409 mapping.
type alreadyTrainingError struct{ unitID string }

func (e alreadyTrainingError) Error() string { return "model already training: " + e.unitID }

// ErrAlreadyTraining constructs an alreadyTrainingError.
func ErrAlreadyTraining(unitID string) error { return alreadyTrainingError{unitID: unitID} }

// IsAlreadyTraining reports whether err indicates a unit with an active job.
func IsAlreadyTraining(err error) bool {
	_, ok := err.(alreadyTrainingError)
	return ok
}
