package chat

import (
	"fmt"
	"time"

	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
)

const (
	fallbackErrorText = "Internal Service Error"
	errorTemplate     = entity.ErrorMarker + " I encountered an issue processing your request (%s). Please ensure your API key is configured correctly."
)

// The functions below never modify their input; each returns a new list.

func AppendMessage(messages []entity.Message, m entity.Message) []entity.Message {
	out := make([]entity.Message, 0, len(messages)+1)
	out = append(out, entity.CloneMessages(messages)...)
	return append(out, m)
}

// ApplyDelta sets the content of the message with the given id to the
// accumulated reply so far. Other fields, the streaming flag included, are
// left alone.
func ApplyDelta(messages []entity.Message, id string, accumulated string) []entity.Message {
	return update(messages, id, func(m *entity.Message) {
		m.Content = accumulated
	})
}

func Finalize(messages []entity.Message, id string, final string) []entity.Message {
	return update(messages, id, func(m *entity.Message) {
		m.Content = final
		m.IsStreaming = false
	})
}

// MarkFailed freezes a placeholder whose stream broke off. Partial content
// stays visible but is flagged so it is never sent to the backend again; a
// placeholder that never received content is dropped.
func MarkFailed(messages []entity.Message, id string) []entity.Message {
	idx := lastIndexOf(messages, id)
	if idx < 0 {
		return entity.CloneMessages(messages)
	}
	if messages[idx].Content == "" {
		out := make([]entity.Message, 0, len(messages)-1)
		out = append(out, entity.CloneMessages(messages[:idx])...)
		return append(out, entity.CloneMessages(messages[idx+1:])...)
	}
	return update(messages, id, func(m *entity.Message) {
		m.IsStreaming = false
		m.Failed = true
	})
}

// SubstituteError appends the model message shown in place of a failed
// reply.
func SubstituteError(messages []entity.Message, err error, at time.Time) []entity.Message {
	return AppendMessage(messages, entity.NewModelMessage(FormatError(err), at))
}

func FormatError(err error) string {
	text := errors.Message(err)
	if text == "" {
		text = fallbackErrorText
	}
	return fmt.Sprintf(errorTemplate, text)
}

func update(messages []entity.Message, id string, fn func(m *entity.Message)) []entity.Message {
	out := entity.CloneMessages(messages)
	if idx := lastIndexOf(out, id); idx >= 0 {
		fn(&out[idx])
	}
	return out
}

// searches from the tail, where the in-flight message lives
func lastIndexOf(messages []entity.Message, id string) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].ID == id {
			return i
		}
	}
	return -1
}
