package lockdown

import "errors"

var (
	ErrInvalidCredentials    = errors.New("wrong password")
	ErrFingerprintMismatch   = errors.New("access denied")
	ErrAlreadyFinalized      = errors.New("already finalized")
	ErrMissingWebcamArtifact = errors.New("a webcam snapshot is required to submit, but your webcam couldn't be accessed")
	ErrStoreUnavailable      = errors.New("exam status store unavailable")
	ErrUnknownAction         = errors.New("unknown action")
	ErrCourseNotFound        = errors.New("course not found")
	ErrMissingUsername       = errors.New("username is required")
)
