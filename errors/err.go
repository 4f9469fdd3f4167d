package errors

import (
	"fmt"
)

var (
	ErrInvalidConfig = fmt.Errorf("oursgpt: invalid config")
	ErrNotFound      = fmt.Errorf("oursgpt: not found")
	ErrInvalidParams = fmt.Errorf("oursgpt: invalid params")
	ErrInternal      = fmt.Errorf("oursgpt: internal error")

	// Generation failures. Backends are black boxes, so these are assigned
	// from the text of whatever the backend returned.
	ErrAuth       = fmt.Errorf("oursgpt: credential missing")
	ErrPermission = fmt.Errorf("oursgpt: permission denied")
	ErrQuota      = fmt.Errorf("oursgpt: quota exhausted")
	ErrTransport  = fmt.Errorf("oursgpt: transport failure")
	ErrNoContent  = fmt.Errorf("oursgpt: no content generated")
)

// GenerationError keeps the backend's own message for display while still
// matching one of the sentinels above with Is.
type GenerationError struct {
	Kind    error
	Message string
	Cause   error
}

func NewGenerationError(kind error, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Cause: cause}
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Message returns the text meant for the user. Wrapped generation errors
// yield the backend message without the wrapping context.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var genErr *GenerationError
	if As(err, &genErr) {
		return genErr.Message
	}
	return err.Error()
}
