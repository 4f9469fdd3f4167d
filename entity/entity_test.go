package entity_test

import (
	"strings"
	"testing"
	"time"

	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleFor(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		messages []entity.Message
		expected string
	}{
		{name: "no messages", expected: entity.DefaultThreadTitle},
		{
			name:     "short first message",
			messages: []entity.Message{entity.NewUserMessage("hello", nil, now)},
			expected: "hello",
		},
		{
			name:     "long first message is cut at 30 characters",
			messages: []entity.Message{entity.NewUserMessage(strings.Repeat("a", 45), nil, now)},
			expected: strings.Repeat("a", 30),
		},
		{
			name:     "multibyte characters count as one",
			messages: []entity.Message{entity.NewUserMessage(strings.Repeat("가", 31), nil, now)},
			expected: strings.Repeat("가", 30),
		},
		{
			name: "image only first message",
			messages: []entity.Message{
				entity.NewUserMessage("", &entity.Attachment{Data: "AAAA", MimeType: "image/png"}, now),
			},
			expected: entity.DefaultThreadTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, entity.TitleFor(tt.messages))
		})
	}
}

func TestDataURI(t *testing.T) {
	a := &entity.Attachment{Data: "iVBORw0KGgo=", MimeType: "image/png"}
	uri := a.DataURI()
	require.Equal(t, "data:image/png;base64,iVBORw0KGgo=", uri)

	parsed, ok := entity.ParseDataURI(uri)
	require.True(t, ok)
	assert.Equal(t, a, parsed)

	_, ok = entity.ParseDataURI("https://example.com/cat.png")
	assert.False(t, ok)
	_, ok = entity.ParseDataURI("data:;base64,AAAA")
	assert.False(t, ok)
}

func TestMessagePredicates(t *testing.T) {
	now := time.Now()
	errMsg := entity.NewModelMessage(entity.ErrorMarker+" boom", now)
	assert.True(t, errMsg.IsError())
	assert.False(t, errMsg.IsEmpty())

	empty := entity.NewModelMessage("", now)
	assert.True(t, empty.IsEmpty())

	streaming := entity.Message{ID: "1", Role: entity.RoleModel, Content: "par", IsStreaming: true}
	assert.False(t, streaming.Settled().IsStreaming)
	assert.True(t, streaming.IsStreaming)
}

func TestThreadCloneIsDeep(t *testing.T) {
	thread := entity.NewThread(time.Now())
	thread.Messages = append(thread.Messages, entity.NewUserMessage("hi", &entity.Attachment{Data: "A", MimeType: "image/png"}, time.Now()))

	c := thread.Clone()
	c.Messages[0].Content = "changed"
	c.Messages[0].Image.Data = "B"

	assert.Equal(t, "hi", thread.Messages[0].Content)
	assert.Equal(t, "A", thread.Messages[0].Image.Data)
}

func TestParseImageStyle(t *testing.T) {
	style, err := entity.ParseImageStyle("3d")
	require.NoError(t, err)
	assert.Equal(t, entity.ImageStyle3D, style)
	assert.Equal(t, "3D Render", style.DisplayName())

	_, err = entity.ParseImageStyle("watercolor")
	assert.ErrorIs(t, err, errors.ErrInvalidParams)
	assert.Contains(t, err.Error(), `"watercolor"`)

	assert.Len(t, entity.ImageStyles(), 5)
	assert.Contains(t, entity.ImageStyleAnime.Modifier(), "anime style")
}
