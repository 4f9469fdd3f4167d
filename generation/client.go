package generation

import (
	"context"

	"github.com/habiliai/oursgpt/entity"
)

const (
	GreetingFallback      = "Hello! I'm OursGPT. How can I assist you today?"
	EmptyResponseFallback = "I'm sorry, I couldn't process that request."

	MissingKeyMessage      = "Gemini API key is missing. Please connect your API key in settings or environment."
	MissingImageKeyMessage = "Gemini API key is missing. Please connect your API key for image generation."
	NoImageMessage         = "No image data was generated. The request might have been blocked or the prompt was too sensitive."
)

type (
	// Client is the generative backend. Errors returned (directly or from
	// Stream.Next) match one of errors.ErrAuth, ErrPermission, ErrNotFound,
	// ErrQuota, ErrTransport or ErrNoContent.
	Client interface {
		// CompleteChat returns the whole reply to the filtered history.
		CompleteChat(ctx context.Context, history []entity.Message, systemInstruction string) (string, error)
		// StreamChat returns a finite, non-restartable sequence of reply
		// fragments. Concatenating them gives the full reply.
		StreamChat(ctx context.Context, history []entity.Message, systemInstruction string) (Stream, error)
		// GenerateImage returns the image as a data URI.
		GenerateImage(ctx context.Context, prompt string, style entity.ImageStyle) (string, error)
	}

	// Stream yields fragments until io.EOF or an error. After Cancel, Next
	// returns context.Canceled and never another fragment.
	Stream interface {
		Next() (string, error)
		Cancel()
	}
)
