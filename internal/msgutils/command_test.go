package msgutils_test

import (
	"testing"

	"github.com/habiliai/oursgpt/internal/msgutils"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		name  string
		args  string
		ok    bool
	}{
		{input: "/new", name: "new", ok: true},
		{input: "  /Image anime a cat in space ", name: "image", args: "anime a cat in space", ok: true},
		{input: "/switch  abc", name: "switch", args: "abc", ok: true},
		{input: "hello /new", ok: false},
		{input: "/", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, args, ok := msgutils.ParseCommand(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSplitFirst(t *testing.T) {
	first, rest := msgutils.SplitFirst("anime  a cat in space")
	assert.Equal(t, "anime", first)
	assert.Equal(t, "a cat in space", rest)

	first, rest = msgutils.SplitFirst("   ")
	assert.Equal(t, "", first)
	assert.Equal(t, "", rest)
}
