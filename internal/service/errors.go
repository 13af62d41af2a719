package service

import "errors"

var (
	// ErrJobNotFound is returned when no job matches the id or prefix.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobConflict is returned when a job is no longer in the state the
	// transition expects, e.g. another rider accepted it first.
	ErrJobConflict = errors.New("job not available")
	// ErrTransitionDenied is returned when the transition policy rejects a request.
	ErrTransitionDenied = errors.New("transition denied")
	// ErrAmbiguousJobID is returned when a prefix matches more than one job.
	ErrAmbiguousJobID = errors.New("job id prefix is ambiguous")
	// ErrProofRequired is returned when a delivery has neither photo nor OTP.
	ErrProofRequired = errors.New("delivery proof required")
	// ErrInvalidJob is returned when a job request is missing required fields.
	ErrInvalidJob = errors.New("invalid job")
	// ErrRiderRequired is returned when a rider action names no rider.
	ErrRiderRequired = errors.New("rider_id is required")
	// ErrRiderNotFound is returned when a rider id is not registered.
	ErrRiderNotFound = errors.New("rider not found")
	// ErrRiderInactive is returned when a registered rider is not active.
	ErrRiderInactive = errors.New("rider is not active")
)

// TransitionError carries the policy's reason for rejecting a transition.
type TransitionError struct {
	Err    error
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Reason
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func denialReason(err error) string {
	var te *TransitionError
	if errors.As(err, &te) && te.Reason != "" {
		return te.Reason
	}
	return err.Error()
}
