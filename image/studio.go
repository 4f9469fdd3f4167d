package image

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/generation"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/internal/sliceutils"
	"github.com/habiliai/oursgpt/storage"
)

const (
	QuotaMessage    = "Quota exhausted on Free Tier. Please connect a paid API key for high-quality image generation."
	NotFoundMessage = "The image generation model was not found. Please select a valid paid API key."

	defaultFailureMessage = "Failed to generate image."
)

type GenerateStatus string

const (
	GenerateIgnored   GenerateStatus = "ignored"
	GenerateSucceeded GenerateStatus = "succeeded"
	GenerateFailed    GenerateStatus = "failed"
)

// Remediation tells the caller what the user can do about a failure.
type Remediation string

const (
	RemediationNone       Remediation = ""
	RemediationConnectKey Remediation = "connect-key"
)

type (
	GenerateResult struct {
		Status       GenerateStatus         `json:"status"`
		Image        *entity.GeneratedImage `json:"image,omitempty"`
		ErrorMessage string                 `json:"errorMessage,omitempty"`
		Remediation  Remediation            `json:"remediation,omitempty"`
		Err          error                  `json:"-"`
	}

	// Studio generates images one at a time and keeps the history of
	// results, newest first.
	Studio interface {
		Generate(ctx context.Context, prompt string, style entity.ImageStyle) (*GenerateResult, error)
		History(ctx context.Context) []entity.GeneratedImage
		Delete(ctx context.Context, id string) error
		Clear(ctx context.Context) error
		Styles() []entity.StyleInfo
		Busy() bool
	}

	studio struct {
		client       generation.Client
		store        storage.Store
		credentials  credential.Provider
		logger       *mylog.Logger
		historyLimit int
		now          func() time.Time

		mu         sync.Mutex
		generating bool
		history    []entity.GeneratedImage
	}

	Option func(*studio)
)

var (
	_ Studio = (*studio)(nil)
)

// WithHistoryLimit bounds the history. Zero or less keeps everything.
func WithHistoryLimit(limit int) Option {
	return func(s *studio) {
		s.historyLimit = limit
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *studio) {
		s.now = now
	}
}

func NewStudio(
	ctx context.Context,
	client generation.Client,
	store storage.Store,
	credentials credential.Provider,
	logger *mylog.Logger,
	opts ...Option,
) (Studio, error) {
	s := &studio{
		client:      client,
		store:       store,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := store.Load(ctx, storage.SlotImageHistory, &s.history); err != nil {
		return nil, errors.Wrapf(err, "failed to load image history")
	}
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}

	return s, nil
}

func (s *studio) Generate(ctx context.Context, prompt string, style entity.ImageStyle) (*GenerateResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "prompt is required")
	}
	if _, ok := style.Info(); !ok {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "unknown image style %q", style)
	}

	if !s.begin() {
		s.logger.Debug("image generation ignored, one is in flight")
		return &GenerateResult{Status: GenerateIgnored}, nil
	}
	defer s.end()

	s.logger.Info("image generation started", slog.String("style", string(style)))

	url, err := s.client.GenerateImage(ctx, prompt, style)
	if err != nil {
		return s.fail(ctx, err), nil
	}

	img := entity.GeneratedImage{
		ID:        entity.NewID(),
		URL:       url,
		Prompt:    prompt,
		Style:     style,
		Timestamp: s.now(),
	}

	s.mu.Lock()
	previous := s.history
	s.history = sliceutils.PrependCapped(s.history, img, s.historyLimit)
	if err = s.persist(ctx); err != nil {
		s.history = previous
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to persist generated image", slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("image generated", slog.String("image_id", img.ID))
	return &GenerateResult{Status: GenerateSucceeded, Image: &img}, nil
}

func (s *studio) fail(ctx context.Context, err error) *GenerateResult {
	err = generation.Classify(err)
	s.logger.Error("image generation failed", slog.Any("error", err))

	if generation.NeedsCredential(err) && s.credentials != nil {
		if reqErr := s.credentials.RequestCredential(ctx); reqErr != nil {
			s.logger.Warn("credential request failed", slog.Any("error", reqErr))
		}
	}

	return &GenerateResult{
		Status:       GenerateFailed,
		ErrorMessage: ErrorMessage(err),
		Remediation:  RemediationFor(err),
		Err:          err,
	}
}

// ErrorMessage turns a generation failure into the text shown to the user.
func ErrorMessage(err error) string {
	msg := errors.Message(err)
	switch {
	case errors.Is(err, errors.ErrQuota):
		return QuotaMessage
	case errors.Is(err, errors.ErrNotFound):
		return NotFoundMessage
	case msg == "":
		return defaultFailureMessage
	}
	return msg
}

func RemediationFor(err error) Remediation {
	if errors.Is(err, errors.ErrQuota) ||
		errors.Is(err, errors.ErrPermission) ||
		errors.Is(err, errors.ErrNotFound) ||
		errors.Is(err, errors.ErrAuth) {
		return RemediationConnectKey
	}
	return RemediationNone
}

func (s *studio) History(_ context.Context) []entity.GeneratedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func (s *studio) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.history, func(img entity.GeneratedImage) bool {
		return img.ID == id
	})
	if idx < 0 {
		return errors.Wrapf(errors.ErrNotFound, "image %s not found", id)
	}
	s.history = slices.Delete(slices.Clone(s.history), idx, idx+1)

	return s.persist(ctx)
}

func (s *studio) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	if err := s.store.Delete(ctx, storage.SlotImageHistory); err != nil {
		return errors.Wrapf(err, "failed to delete image history")
	}
	s.logger.Info("image history cleared")
	return nil
}

func (s *studio) Styles() []entity.StyleInfo {
	return entity.ImageStyles()
}

func (s *studio) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

func (s *studio) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating {
		return false
	}
	s.generating = true
	return true
}

func (s *studio) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
}

// requires s.mu
func (s *studio) persist(ctx context.Context) error {
	history := s.history
	if history == nil {
		history = []entity.GeneratedImage{}
	}
	if err := s.store.Save(ctx, storage.SlotImageHistory, history); err != nil {
		return errors.Wrapf(err, "failed to save image history")
	}
	return nil
}
