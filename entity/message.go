package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"

	// ErrorMarker prefixes every model message produced from a failed turn.
	ErrorMarker = "**Error:**"
)

type (
	// Attachment is an inline image carried by a user message.
	Attachment struct {
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	}

	Message struct {
		ID          string      `json:"id"`
		Role        Role        `json:"role"`
		Content     string      `json:"content"`
		Timestamp   time.Time   `json:"timestamp"`
		Image       *Attachment `json:"image,omitempty"`
		IsStreaming bool        `json:"isStreaming,omitempty"`

		// Failed marks an assistant message whose stream broke off. The
		// partial content is kept but it never reaches the backend again.
		Failed bool `json:"failed,omitempty"`
	}
)

func NewID() string {
	return uuid.NewString()
}

// DataURI renders the attachment as data:<mime>;base64,<data>.
func (a *Attachment) DataURI() string {
	return "data:" + a.MimeType + ";base64," + a.Data
}

func ParseDataURI(uri string) (*Attachment, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, false
	}
	mimeType, data, ok := strings.Cut(rest, ";base64,")
	if !ok || mimeType == "" {
		return nil, false
	}
	return &Attachment{Data: data, MimeType: mimeType}, true
}

func NewUserMessage(content string, image *Attachment, at time.Time) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: at,
		Image:     image,
	}
}

func NewModelMessage(content string, at time.Time) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleModel,
		Content:   content,
		Timestamp: at,
	}
}

func (m Message) IsError() bool {
	return strings.HasPrefix(m.Content, ErrorMarker)
}

func (m Message) HasImage() bool {
	return m.Image != nil && m.Image.Data != ""
}

func (m Message) IsEmpty() bool {
	return m.Content == "" && !m.HasImage()
}

// Settled returns the message as it should be shown after a reload. A
// message persisted mid-stream is treated as a truncated final message.
func (m Message) Settled() Message {
	m.IsStreaming = false
	return m
}

func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	cloned := make([]Message, len(messages))
	for i, msg := range messages {
		if msg.Image != nil {
			image := *msg.Image
			msg.Image = &image
		}
		cloned[i] = msg
	}
	return cloned
}
