package chat

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/generation"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/thread"
)

type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

type TurnStatus string

const (
	TurnIgnored   TurnStatus = "ignored"
	TurnSucceeded TurnStatus = "succeeded"
	TurnFailed    TurnStatus = "failed"
)

type (
	// Composer is what the user submitted: text, an optional image, or both.
	Composer struct {
		Text  string             `json:"text"`
		Image *entity.Attachment `json:"image,omitempty"`
	}

	TurnResult struct {
		Status   TurnStatus `json:"status"`
		ThreadID string     `json:"threadId,omitempty"`

		// Message is the final assistant message of a successful turn.
		Message *entity.Message `json:"message,omitempty"`

		// Restore holds the composer exactly as submitted when the turn
		// failed, so the caller can put it back.
		Restore *Composer `json:"restore,omitempty"`
		Err     error     `json:"-"`
	}

	// Event carries the thread's messages after every change made during a
	// turn.
	Event struct {
		ThreadID string           `json:"threadId"`
		Messages []entity.Message `json:"messages"`
	}

	Listener func(Event)

	SendOption func(*sendOptions)

	sendOptions struct {
		listener Listener
	}

	// Orchestrator runs one conversational turn at a time. A Send made
	// while a turn is in flight is ignored, not queued.
	Orchestrator interface {
		Send(ctx context.Context, threadId string, composer Composer, opts ...SendOption) (*TurnResult, error)
		// Cancel stops the in-flight turn and reports whether there was one.
		Cancel() bool
		Busy() bool
		State() State
	}

	orchestrator struct {
		threads           thread.Manager
		client            generation.Client
		credentials       credential.Provider
		logger            *mylog.Logger
		now               func() time.Time
		systemInstruction string

		mu     sync.Mutex
		state  State
		cancel context.CancelFunc
		stream generation.Stream
	}

	Option func(*orchestrator)
)

var (
	_ Orchestrator = (*orchestrator)(nil)
)

func WithSystemInstruction(instruction string) Option {
	return func(o *orchestrator) {
		o.systemInstruction = instruction
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *orchestrator) {
		o.now = now
	}
}

// WithListener publishes every message update of the turn to l.
func WithListener(l Listener) SendOption {
	return func(o *sendOptions) {
		o.listener = l
	}
}

func NewOrchestrator(
	threads thread.Manager,
	client generation.Client,
	credentials credential.Provider,
	logger *mylog.Logger,
	opts ...Option,
) Orchestrator {
	o := &orchestrator{
		threads:     threads,
		client:      client,
		credentials: credentials,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *orchestrator) Busy() bool {
	return o.State() != StateIdle
}

func (o *orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel == nil {
		return false
	}
	o.cancel()
	if o.stream != nil {
		o.stream.Cancel()
	}
	o.logger.Info("chat turn cancelled")
	return true
}

func (o *orchestrator) Send(ctx context.Context, threadId string, composer Composer, opts ...SendOption) (*TurnResult, error) {
	if strings.TrimSpace(composer.Text) == "" && (composer.Image == nil || composer.Image.Data == "") {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "message requires text or an image")
	}

	var options sendOptions
	for _, opt := range opts {
		opt(&options)
	}

	turnCtx, ok := o.begin(ctx)
	if !ok {
		o.logger.Debug("send ignored, a turn is in flight")
		return &TurnResult{Status: TurnIgnored}, nil
	}
	defer o.end()

	t, err := o.resolveThread(ctx, threadId)
	if err != nil {
		return nil, err
	}

	tr := &turn{
		orchestrator: o,
		threadId:     t.ID,
		messages:     t.Messages,
		listener:     options.listener,
		restore:      cloneComposer(composer),
	}

	// optimistic append of the user message and the reply placeholder
	user := entity.NewUserMessage(composer.Text, cloneAttachment(composer.Image), o.now())
	tr.messages = AppendMessage(tr.messages, user)
	history := tr.messages

	placeholder := entity.NewModelMessage("", o.now())
	placeholder.IsStreaming = true
	tr.placeholderId = placeholder.ID
	tr.messages = AppendMessage(tr.messages, placeholder)
	if err := tr.save(ctx); err != nil {
		return nil, err
	}

	o.logger.Info("chat turn started", slog.String("thread_id", t.ID), slog.Bool("has_image", user.HasImage()))

	stream, err := o.client.StreamChat(turnCtx, history, o.systemInstruction)
	if err != nil {
		return tr.fail(ctx, err), nil
	}
	if !o.streaming(turnCtx, stream) {
		stream.Cancel()
		return tr.fail(ctx, context.Canceled), nil
	}
	defer stream.Cancel()

	var accumulated strings.Builder
	for {
		fragment, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err == nil && turnCtx.Err() != nil {
			err = turnCtx.Err()
		}
		if err != nil {
			return tr.fail(ctx, err), nil
		}

		accumulated.WriteString(fragment)
		tr.messages = ApplyDelta(tr.messages, tr.placeholderId, accumulated.String())
		if err := tr.save(ctx); err != nil {
			o.logger.Warn("failed to persist stream delta", slog.Any("error", err))
		}
	}

	final := accumulated.String()
	if strings.TrimSpace(final) == "" {
		final = generation.EmptyResponseFallback
	}
	tr.messages = Finalize(tr.messages, tr.placeholderId, final)
	if err := tr.save(ctx); err != nil {
		return nil, err
	}

	o.logger.Info("chat turn succeeded", slog.String("thread_id", t.ID), slog.Int("length", len(final)))

	message := tr.message(tr.placeholderId)
	return &TurnResult{
		Status:   TurnSucceeded,
		ThreadID: t.ID,
		Message:  message,
	}, nil
}

func (o *orchestrator) begin(ctx context.Context) (context.Context, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle {
		return nil, false
	}
	turnCtx, cancel := context.WithCancel(ctx)
	o.state = StateSending
	o.cancel = cancel
	return turnCtx, true
}

// streaming records the stream so Cancel can reach it. It reports false when
// the turn was cancelled before the stream opened.
func (o *orchestrator) streaming(turnCtx context.Context, stream generation.Stream) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if turnCtx.Err() != nil {
		return false
	}
	o.state = StateStreaming
	o.stream = stream
	return true
}

func (o *orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.state = StateIdle
	o.cancel = nil
	o.stream = nil
}

// resolveThread picks the requested thread, else the active one, else a new
// one.
func (o *orchestrator) resolveThread(ctx context.Context, threadId string) (*entity.Thread, error) {
	if threadId != "" {
		t, err := o.threads.GetThreadById(ctx, threadId)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		o.logger.Debug("requested thread not found", slog.String("thread_id", threadId))
	}
	if t, ok := o.threads.GetActive(ctx); ok {
		return t, nil
	}
	return o.threads.CreateThread(ctx)
}

type turn struct {
	*orchestrator

	threadId      string
	placeholderId string
	messages      []entity.Message
	listener      Listener
	restore       *Composer
}

func (t *turn) save(ctx context.Context) error {
	if err := t.threads.UpdateMessages(ctx, t.threadId, t.messages); err != nil {
		return errors.Wrapf(err, "failed to save messages of thread %s", t.threadId)
	}
	if t.listener != nil {
		t.listener(Event{ThreadID: t.threadId, Messages: entity.CloneMessages(t.messages)})
	}
	return nil
}

func (t *turn) message(id string) *entity.Message {
	if idx := lastIndexOf(t.messages, id); idx >= 0 {
		m := entity.CloneMessages(t.messages[idx : idx+1])[0]
		return &m
	}
	return nil
}

// fail freezes the placeholder and, unless the user cancelled, appends the
// error message. The caller gets the composer back.
func (t *turn) fail(ctx context.Context, err error) *TurnResult {
	cancelled := errors.Is(err, context.Canceled)

	t.messages = MarkFailed(t.messages, t.placeholderId)
	if !cancelled {
		t.messages = SubstituteError(t.messages, err, t.now())
	}
	// the turn context may be gone, the caller's is not
	if saveErr := t.save(context.WithoutCancel(ctx)); saveErr != nil {
		t.logger.Warn("failed to persist failed turn", slog.Any("error", saveErr))
	}

	if cancelled {
		t.logger.Info("chat turn cancelled", slog.String("thread_id", t.threadId))
		err = errors.Wrapf(err, "chat turn cancelled")
	} else {
		t.logger.Error("chat turn failed", slog.String("thread_id", t.threadId), slog.Any("error", err))
		if generation.NeedsCredential(err) && t.credentials != nil {
			if reqErr := t.credentials.RequestCredential(ctx); reqErr != nil {
				t.logger.Warn("credential request failed", slog.Any("error", reqErr))
			}
		}
	}

	return &TurnResult{
		Status:   TurnFailed,
		ThreadID: t.threadId,
		Restore:  t.restore,
		Err:      err,
	}
}

func cloneComposer(c Composer) *Composer {
	return &Composer{Text: c.Text, Image: cloneAttachment(c.Image)}
}

func cloneAttachment(a *entity.Attachment) *entity.Attachment {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
