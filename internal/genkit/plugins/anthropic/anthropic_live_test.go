package anthropic_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/anthropic"
	"github.com/habiliai/oursgpt/internal/mytesting"
	"github.com/stretchr/testify/suite"
)

type AnthropicLiveTestSuite struct {
	mytesting.Suite

	g *genkit.Genkit
}

func (s *AnthropicLiveTestSuite) SetupTest() {
	s.Suite.SetupTest()
	s.RequireEnv("ANTHROPIC_API_KEY")

	var err error
	s.g, err = genkit.Init(s, genkit.WithPlugins(&anthropic.Plugin{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}))
	s.Require().NoError(err)
}

func (s *AnthropicLiveTestSuite) generate(opts ...ai.GenerateOption) *ai.ModelResponse {
	opts = append([]ai.GenerateOption{
		ai.WithModel(anthropic.Model(s.g, "claude-3.5-haiku")),
		ai.WithConfig(&ai.GenerationCommonConfig{MaxOutputTokens: 100}),
	}, opts...)

	resp, err := genkit.Generate(s, s.g, opts...)
	s.Require().NoError(err)
	s.Require().NotNil(resp.Message)
	return resp
}

func (s *AnthropicLiveTestSuite) TestChatWithSystemInstruction() {
	resp := s.generate(ai.WithMessages(
		ai.NewSystemTextMessage("Answer with a single word and no punctuation."),
		ai.NewUserTextMessage("What is the capital of Japan?"),
		ai.NewModelTextMessage("Tokyo"),
		ai.NewUserTextMessage("And of France?"),
	))
	s.Contains(resp.Text(), "Paris")
}

func (s *AnthropicLiveTestSuite) TestStreamedTextMatchesFinal() {
	var streamed strings.Builder
	resp := s.generate(
		ai.WithMessages(ai.NewUserTextMessage("Count from 1 to 5, one number per line.")),
		ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			streamed.WriteString(chunk.Text())
			return nil
		}),
	)
	s.NotEmpty(streamed.String())
	s.Equal(resp.Text(), streamed.String())
}

func (s *AnthropicLiveTestSuite) TestDescribesAttachedImage() {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := range 64 {
		for y := range 64 {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, img))
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	resp := s.generate(ai.WithMessages(ai.NewUserMessage(
		ai.NewMediaPart("image/png", dataURI),
		ai.NewTextPart("What color is this image? Answer with the color name only."),
	)))
	s.Contains(strings.ToLower(resp.Text()), "red")
}

func TestAnthropicLive(t *testing.T) {
	suite.Run(t, new(AnthropicLiveTestSuite))
}
