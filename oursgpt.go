package oursgpt

import (
	"context"
	"log/slog"

	"github.com/habiliai/oursgpt/chat"
	"github.com/habiliai/oursgpt/config"
	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/generation"
	"github.com/habiliai/oursgpt/image"
	"github.com/habiliai/oursgpt/internal/db"
	"github.com/habiliai/oursgpt/internal/genkit"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/settings"
	"github.com/habiliai/oursgpt/storage"
	"github.com/habiliai/oursgpt/thread"
	"gorm.io/gorm"
)

type (
	// App wires the stores, the generation client and the services on top
	// of them. Close releases the database.
	App struct {
		config      *config.Config
		logger      *mylog.Logger
		store       storage.Store
		client      generation.Client
		credentials credential.Provider

		db       *gorm.DB
		threads  thread.Manager
		chat     chat.Orchestrator
		studio   image.Studio
		settings *settings.Service
	}
	Option func(*App)
)

func WithConfig(cfg *config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

func WithLogger(logger *mylog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithStore replaces the store selected by config.Storage.
func WithStore(store storage.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithGenerationClient replaces the genkit backed client.
func WithGenerationClient(client generation.Client) Option {
	return func(a *App) {
		a.client = client
	}
}

func WithCredentialProvider(credentials credential.Provider) Option {
	return func(a *App) {
		a.credentials = credentials
	}
}

func NewApp(ctx context.Context, opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.config == nil {
		a.config = config.NewConfig()
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	if a.logger == nil {
		a.logger = mylog.NewLogger(a.config.Log.LogLevel, a.config.Log.LogHandler)
	}
	if a.credentials == nil {
		if key := a.config.Model.GeminiAPIKey; key != "" {
			a.credentials = credential.NewStaticProvider(key)
		} else {
			a.credentials = credential.NewEnvProvider()
		}
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if a.client == nil {
		g, err := genkit.NewGenkit(ctx, a.config.Model, a.config.Log, a.credentials, a.logger)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.client = generation.NewGenkitClient(g, a.config.Model, a.config.Image, a.credentials, a.logger)
	}

	var err error
	if a.threads, err = thread.NewManager(ctx, a.store, a.logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.studio, err = image.NewStudio(ctx, a.client, a.store, a.credentials, a.logger,
		image.WithHistoryLimit(a.config.Image.HistoryLimit),
	); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.settings, err = settings.NewService(a.store, a.threads, a.studio, a.config.Settings.DefaultTheme, a.logger); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.chat = chat.NewOrchestrator(a.threads, a.client, a.credentials, a.logger,
		chat.WithSystemInstruction(a.config.Model.SystemInstruction),
	)

	a.logger.Debug("app ready",
		slog.String("storage", a.config.Storage.Driver),
		slog.String("chat_model", a.config.Model.ChatModel),
	)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	switch a.config.Storage.Driver {
	case config.StorageDriverMemory:
		a.store = storage.NewInMemoryStore()
	case config.StorageDriverSqlite:
		gdb, err := db.OpenSqlite(a.config.Storage.SqlitePath, a.logger)
		if err != nil {
			return err
		}
		store, err := storage.NewSqliteStore(ctx, gdb)
		if err != nil {
			_ = db.CloseDB(gdb)
			return err
		}
		a.db = gdb
		a.store = store
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "unknown storage driver: %s", a.config.Storage.Driver)
	}
	return nil
}

func (a *App) Close() error {
	if err := db.CloseDB(a.db); err != nil {
		return errors.Wrapf(err, "failed to close database")
	}
	a.db = nil
	return nil
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() *mylog.Logger {
	return a.logger
}

func (a *App) Client() generation.Client {
	return a.client
}

func (a *App) Credentials() credential.Provider {
	return a.credentials
}

func (a *App) Threads() thread.Manager {
	return a.threads
}

func (a *App) Chat() chat.Orchestrator {
	return a.chat
}

func (a *App) Images() image.Studio {
	return a.studio
}

func (a *App) Settings() *settings.Service {
	return a.settings
}
