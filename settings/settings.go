package settings

import (
	"context"
	"log/slog"
	"sync"

	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/image"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/storage"
	"github.com/habiliai/oursgpt/thread"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), nil
	}
	return "", errors.Wrapf(errors.ErrInvalidParams, "theme must be dark or light, got %q", s)
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type Service struct {
	store        storage.Store
	threads      thread.Manager
	studio       image.Studio
	logger       *mylog.Logger
	defaultTheme Theme

	mu sync.Mutex
}

func NewService(store storage.Store, threads thread.Manager, studio image.Studio, defaultTheme string, logger *mylog.Logger) (*Service, error) {
	theme, err := ParseTheme(defaultTheme)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "default theme: %v", err)
	}
	return &Service{
		store:        store,
		threads:      threads,
		studio:       studio,
		logger:       logger,
		defaultTheme: theme,
	}, nil
}

// Theme returns the stored theme, or the default when none was saved or the
// stored value is not a known theme.
func (s *Service) Theme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme(ctx)
}

func (s *Service) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setTheme(ctx, theme)
}

func (s *Service) ToggleTheme(ctx context.Context) (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.theme(ctx)
	if err != nil {
		return "", err
	}
	next := current.Toggle()
	if err := s.setTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}

// ClearHistory wipes threads, the active pointer and the image history. The
// theme is kept.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.threads.Clear(ctx); err != nil {
		return errors.Wrapf(err, "failed to clear threads")
	}
	if err := s.studio.Clear(ctx); err != nil {
		return errors.Wrapf(err, "failed to clear image history")
	}
	s.logger.Info("history cleared")
	return nil
}

// requires s.mu
func (s *Service) theme(ctx context.Context) (Theme, error) {
	var stored string
	found, err := s.store.Load(ctx, storage.SlotTheme, &stored)
	if err != nil {
		return "", errors.Wrapf(err, "failed to load theme")
	}
	if !found {
		return s.defaultTheme, nil
	}
	theme, err := ParseTheme(stored)
	if err != nil {
		s.logger.Warn("ignoring unknown stored theme", slog.String("theme", stored))
		return s.defaultTheme, nil
	}
	return theme, nil
}

// requires s.mu
func (s *Service) setTheme(ctx context.Context, theme Theme) error {
	if err := s.store.Save(ctx, storage.SlotTheme, string(theme)); err != nil {
		return errors.Wrapf(err, "failed to save theme")
	}
	s.logger.Debug("theme changed", slog.String("theme", string(theme)))
	return nil
}
