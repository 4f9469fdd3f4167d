package entity

import (
	"time"

	"github.com/habiliai/oursgpt/internal/stringutils"
)

const (
	DefaultThreadTitle = "New Chat"
	ThreadTitleLength  = 30
)

type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewThread(at time.Time) *Thread {
	return &Thread{
		ID:        NewID(),
		Title:     DefaultThreadTitle,
		Messages:  []Message{},
		UpdatedAt: at,
	}
}

// TitleFor derives a thread title from the first message of a conversation.
func TitleFor(messages []Message) string {
	if len(messages) == 0 {
		return DefaultThreadTitle
	}
	title := stringutils.Truncate(messages[0].Content, ThreadTitleLength)
	if title == "" {
		return DefaultThreadTitle
	}
	return title
}

func (t *Thread) Clone() *Thread {
	if t == nil {
		return nil
	}
	c := *t
	c.Messages = CloneMessages(t.Messages)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return &c
}

// LastMessage returns the newest message, if any.
func (t *Thread) LastMessage() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}
