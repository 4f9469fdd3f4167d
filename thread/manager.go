package thread

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/storage"
)

type (
	// Manager owns the thread list (newest first) and the active-thread
	// pointer. Every mutation is written through to the store before it
	// returns. Threads handed out are copies.
	Manager interface {
		CreateThread(ctx context.Context) (*entity.Thread, error)
		UpdateMessages(ctx context.Context, threadId string, messages []entity.Message) error
		DeleteThread(ctx context.Context, threadId string) error
		GetActive(ctx context.Context) (*entity.Thread, bool)
		SetActive(ctx context.Context, threadId string) error
		GetThreads(ctx context.Context) []entity.Thread
		GetThreadById(ctx context.Context, threadId string) (*entity.Thread, error)
		Clear(ctx context.Context) error
	}

	manager struct {
		logger *mylog.Logger
		store  storage.Store
		now    func() time.Time

		mu       sync.Mutex
		threads  []*entity.Thread
		activeId string
	}

	Option func(*manager)
)

var (
	_ Manager = (*manager)(nil)
)

func WithClock(now func() time.Time) Option {
	return func(m *manager) {
		m.now = now
	}
}

// NewManager loads the thread list and active pointer from store. Messages
// left streaming by an earlier process are settled as final.
func NewManager(ctx context.Context, store storage.Store, logger *mylog.Logger, opts ...Option) (Manager, error) {
	m := &manager{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	var threads []*entity.Thread
	if _, err := store.Load(ctx, storage.SlotThreads, &threads); err != nil {
		return nil, errors.Wrapf(err, "failed to load threads")
	}
	for _, t := range threads {
		if t.Messages == nil {
			t.Messages = []entity.Message{}
		}
		for i := range t.Messages {
			t.Messages[i] = t.Messages[i].Settled()
		}
	}
	m.threads = threads

	if _, err := store.Load(ctx, storage.SlotActiveThreadID, &m.activeId); err != nil {
		return nil, errors.Wrapf(err, "failed to load active thread id")
	}

	logger.Debug("threads loaded", slog.Int("count", len(threads)), slog.String("active_thread_id", m.activeId))

	return m, nil
}

func (m *manager) CreateThread(ctx context.Context) (*entity.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	thread := entity.NewThread(m.now())
	m.threads = slices.Insert(m.threads, 0, thread)
	m.activeId = thread.ID

	if err := m.persist(ctx); err != nil {
		return nil, err
	}

	m.logger.Info("thread created", slog.String("thread_id", thread.ID))
	return thread.Clone(), nil
}

func (m *manager) UpdateMessages(ctx context.Context, threadId string, messages []entity.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(threadId)
	if idx < 0 {
		m.logger.Debug("update on unknown thread ignored", slog.String("thread_id", threadId))
		return nil
	}

	thread := m.threads[idx]
	// title is derived once, from the first message of an empty thread
	if len(thread.Messages) == 0 {
		thread.Title = entity.TitleFor(messages)
	}
	thread.Messages = entity.CloneMessages(messages)
	if thread.Messages == nil {
		thread.Messages = []entity.Message{}
	}
	thread.UpdatedAt = m.now()

	return m.persistThreads(ctx)
}

func (m *manager) DeleteThread(ctx context.Context, threadId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(threadId)
	if idx < 0 {
		return nil
	}
	m.threads = slices.Delete(m.threads, idx, idx+1)
	if m.activeId == threadId {
		m.activeId = ""
	}

	if err := m.persist(ctx); err != nil {
		return err
	}

	m.logger.Info("thread deleted", slog.String("thread_id", threadId))
	return nil
}

func (m *manager) GetActive(_ context.Context) (*entity.Thread, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeId == "" {
		return nil, false
	}
	idx := m.indexOf(m.activeId)
	if idx < 0 {
		return nil, false
	}
	return m.threads[idx].Clone(), true
}

func (m *manager) SetActive(ctx context.Context, threadId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(threadId) < 0 {
		return errors.Wrapf(errors.ErrNotFound, "thread %s not found", threadId)
	}
	m.activeId = threadId

	return m.persistActive(ctx)
}

func (m *manager) GetThreads(_ context.Context) []entity.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()

	threads := make([]entity.Thread, 0, len(m.threads))
	for _, t := range m.threads {
		threads = append(threads, *t.Clone())
	}
	return threads
}

func (m *manager) GetThreadById(_ context.Context, threadId string) (*entity.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(threadId)
	if idx < 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "thread %s not found", threadId)
	}
	return m.threads[idx].Clone(), nil
}

func (m *manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.threads = nil
	m.activeId = ""
	if err := m.store.Delete(ctx, storage.SlotThreads); err != nil {
		return errors.Wrapf(err, "failed to delete threads")
	}
	if err := m.store.Delete(ctx, storage.SlotActiveThreadID); err != nil {
		return errors.Wrapf(err, "failed to delete active thread id")
	}

	m.logger.Info("thread history cleared")
	return nil
}

// requires m.mu
func (m *manager) indexOf(threadId string) int {
	return slices.IndexFunc(m.threads, func(t *entity.Thread) bool {
		return t.ID == threadId
	})
}

// requires m.mu
func (m *manager) persist(ctx context.Context) error {
	if err := m.persistThreads(ctx); err != nil {
		return err
	}
	return m.persistActive(ctx)
}

// requires m.mu
func (m *manager) persistThreads(ctx context.Context) error {
	threads := m.threads
	if threads == nil {
		threads = []*entity.Thread{}
	}
	if err := m.store.Save(ctx, storage.SlotThreads, threads); err != nil {
		return errors.Wrapf(err, "failed to save threads")
	}
	return nil
}

// requires m.mu
func (m *manager) persistActive(ctx context.Context) error {
	if m.activeId == "" {
		if err := m.store.Delete(ctx, storage.SlotActiveThreadID); err != nil {
			return errors.Wrapf(err, "failed to delete active thread id")
		}
		return nil
	}
	if err := m.store.Save(ctx, storage.SlotActiveThreadID, m.activeId); err != nil {
		return errors.Wrapf(err, "failed to save active thread id")
	}
	return nil
}
