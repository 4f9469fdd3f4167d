package generation

import (
	"strings"

	"github.com/habiliai/oursgpt/entity"
	"github.com/samber/lo"
)

// BuildHistory prepares a conversation for the backend:
//   - error messages, failed or still streaming replies and messages with
//     neither text nor image are dropped
//   - text is trimmed
//   - a run of consecutive same-role messages collapses into its latest
//     message, so roles strictly alternate. This differs on purpose from a
//     first-wins collapse: [user:a, user:b, model:c] becomes [user:b]
//   - a trailing non-user message is dropped, the backend requires the
//     last turn to be the user's
//
// An empty result means there is nothing to send.
func BuildHistory(messages []entity.Message) []entity.Message {
	kept := lo.FilterMap(messages, func(m entity.Message, _ int) (entity.Message, bool) {
		if m.IsError() || m.Failed || m.IsStreaming {
			return m, false
		}
		m.Content = strings.TrimSpace(m.Content)
		return m, !m.IsEmpty()
	})

	history := make([]entity.Message, 0, len(kept))
	for _, m := range kept {
		if n := len(history); n > 0 && history[n-1].Role == m.Role {
			history[n-1] = m
			continue
		}
		history = append(history, m)
	}

	if n := len(history); n > 0 && history[n-1].Role != entity.RoleUser {
		history = history[:n-1]
	}

	return history
}
