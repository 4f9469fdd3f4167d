package generation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/config"
	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/samber/lo"
)

// providers whose key comes from the credential provider rather than config
const credentialProvider = "googleai"

type GenkitClient struct {
	genkit      *genkit.Genkit
	modelConfig *config.ModelConfig
	imageConfig *config.ImageConfig
	credentials credential.Provider
	logger      *mylog.Logger
	now         func() time.Time
}

var _ Client = (*GenkitClient)(nil)

func NewGenkitClient(
	g *genkit.Genkit,
	modelConfig *config.ModelConfig,
	imageConfig *config.ImageConfig,
	credentials credential.Provider,
	logger *mylog.Logger,
) *GenkitClient {
	return &GenkitClient{
		genkit:      g,
		modelConfig: modelConfig,
		imageConfig: imageConfig,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
}

func (c *GenkitClient) CompleteChat(ctx context.Context, history []entity.Message, systemInstruction string) (string, error) {
	if err := c.requireCredential(ctx, c.modelConfig.ChatModel, MissingKeyMessage); err != nil {
		return "", err
	}

	history = BuildHistory(history)
	if len(history) == 0 {
		return GreetingFallback, nil
	}

	opts, err := c.chatOptions(history, systemInstruction)
	if err != nil {
		return "", err
	}

	resp, err := genkit.Generate(ctx, c.genkit, opts...)
	if err != nil {
		c.logger.Error("chat completion failed", slog.String("model", c.modelConfig.ChatModel), slog.Any("error", err))
		return "", errors.Wrapf(Classify(err), "failed to complete chat")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return EmptyResponseFallback, nil
	}
	return text, nil
}

func (c *GenkitClient) StreamChat(ctx context.Context, history []entity.Message, systemInstruction string) (Stream, error) {
	if err := c.requireCredential(ctx, c.modelConfig.ChatModel, MissingKeyMessage); err != nil {
		return nil, err
	}

	history = BuildHistory(history)
	if len(history) == 0 {
		return StaticStream(ctx, GreetingFallback), nil
	}

	opts, err := c.chatOptions(history, systemInstruction)
	if err != nil {
		return nil, err
	}

	return NewStream(ctx, func(ctx context.Context, emit EmitFunc) error {
		opts := append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			if text := chunk.Text(); text != "" {
				return emit(text)
			}
			return nil
		}))

		if _, err := genkit.Generate(ctx, c.genkit, opts...); err != nil {
			if ctx.Err() == nil {
				c.logger.Error("chat stream failed", slog.String("model", c.modelConfig.ChatModel), slog.Any("error", err))
			}
			return Classify(err)
		}
		return nil
	}), nil
}

func (c *GenkitClient) GenerateImage(ctx context.Context, prompt string, style entity.ImageStyle) (string, error) {
	if err := c.requireCredential(ctx, c.modelConfig.ImageModel, MissingImageKeyMessage); err != nil {
		return "", err
	}

	enhanced, err := ImagePrompt(prompt, style)
	if err != nil {
		return "", err
	}

	resp, err := genkit.Generate(ctx, c.genkit,
		ai.WithModelName(c.modelConfig.ImageModel),
		ai.WithMessages(ai.NewUserTextMessage(enhanced)),
		ai.WithConfig(&pluginconfig.ImageConfig{
			AspectRatio: c.imageConfig.AspectRatio,
			ImageSize:   c.imageConfig.Size,
		}),
	)
	if err != nil {
		c.logger.Error("image generation failed", slog.String("model", c.modelConfig.ImageModel), slog.Any("error", err))
		return "", errors.Wrapf(Classify(err), "failed to generate image")
	}

	if resp.Message != nil {
		for _, part := range resp.Message.Content {
			if part.IsMedia() && part.Text != "" {
				return mediaDataURI(part), nil
			}
		}
	}

	c.logger.Warn("image response carried no media", slog.String("finish_reason", string(resp.FinishReason)))
	return "", errors.NewGenerationError(errors.ErrNoContent, NoImageMessage, nil)
}

func (c *GenkitClient) requireCredential(ctx context.Context, model string, message string) error {
	if config.Provider(model) != credentialProvider {
		return nil
	}
	if c.credentials == nil || !c.credentials.HasCredential(ctx) {
		return errors.NewGenerationError(errors.ErrAuth, message, nil)
	}
	return nil
}

func (c *GenkitClient) chatOptions(history []entity.Message, systemInstruction string) ([]ai.GenerateOption, error) {
	if systemInstruction == "" {
		systemInstruction = c.modelConfig.SystemInstruction
	}
	system, err := RenderSystemInstruction(systemInstruction, c.now())
	if err != nil {
		return nil, err
	}

	messages := make([]*ai.Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, ai.NewSystemTextMessage(system))
	}
	messages = append(messages, ToGenkitMessages(history)...)

	return []ai.GenerateOption{
		ai.WithModelName(c.modelConfig.ChatModel),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     c.modelConfig.Temperature,
			TopP:            c.modelConfig.TopP,
			MaxOutputTokens: c.modelConfig.MaxOutputTokens,
		}),
	}, nil
}

// ToGenkitMessages converts filtered history into genkit messages. An
// attached image goes before the text, as a data URI media part.
func ToGenkitMessages(history []entity.Message) []*ai.Message {
	return lo.Map(history, func(m entity.Message, _ int) *ai.Message {
		var parts []*ai.Part
		if m.HasImage() {
			parts = append(parts, ai.NewMediaPart(m.Image.MimeType, m.Image.DataURI()))
		}
		if m.Content != "" {
			parts = append(parts, ai.NewTextPart(m.Content))
		}

		role := ai.RoleUser
		if m.Role == entity.RoleModel {
			role = ai.RoleModel
		}
		return &ai.Message{Role: role, Content: parts}
	})
}

func mediaDataURI(part *ai.Part) string {
	if strings.HasPrefix(part.Text, "data:") {
		return part.Text
	}
	contentType := part.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	return (&entity.Attachment{Data: part.Text, MimeType: contentType}).DataURI()
}
