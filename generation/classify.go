package generation

import (
	"context"

	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/internal/stringslices"
)

// Classify maps a backend failure onto the error taxonomy by inspecting its
// text. Cancellation and errors that are already classified pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var genErr *errors.GenerationError
	if errors.As(err, &genErr) {
		return err
	}

	msg := err.Error()
	kind := errors.ErrTransport
	switch {
	case stringslices.AnySubstringIgnoreCase(msg, "429", "quota", "resource exhausted", "resource_exhausted"):
		kind = errors.ErrQuota
	case stringslices.AnySubstringIgnoreCase(msg, "401", "api key not valid", "invalid api key", "unauthenticated"):
		kind = errors.ErrAuth
	case stringslices.AnySubstringIgnoreCase(msg, "403", "permission"):
		kind = errors.ErrPermission
	case stringslices.AnySubstringIgnoreCase(msg, "404", "not found"):
		kind = errors.ErrNotFound
	}

	return errors.NewGenerationError(kind, msg, err)
}

// NeedsCredential reports whether err should prompt for a different key.
func NeedsCredential(err error) bool {
	return errors.Is(err, errors.ErrAuth) ||
		errors.Is(err, errors.ErrPermission) ||
		errors.Is(err, errors.ErrNotFound)
}
