package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/habiliai/oursgpt/chat"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/generation"
	"github.com/habiliai/oursgpt/generation/generationtest"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/internal/mytesting"
	"github.com/habiliai/oursgpt/storage"
	"github.com/habiliai/oursgpt/thread"
	"github.com/stretchr/testify/suite"
)

type countingCredentials struct {
	mu       sync.Mutex
	key      string
	requests int
}

func (c *countingCredentials) HasCredential(context.Context) bool { return c.key != "" }
func (c *countingCredentials) APIKey(context.Context) string      { return c.key }
func (c *countingCredentials) RequestCredential(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
	return errors.ErrAuth
}

type OrchestratorTestSuite struct {
	mytesting.Suite

	threads      thread.Manager
	client       *generationtest.Client
	credentials  *countingCredentials
	orchestrator chat.Orchestrator
}

func (s *OrchestratorTestSuite) SetupTest() {
	s.Suite.SetupTest()

	var err error
	s.threads, err = thread.NewManager(s, storage.NewInMemoryStore(), mylog.NewDiscardLogger())
	s.Require().NoError(err)

	s.client = generationtest.NewClient()
	s.credentials = &countingCredentials{key: "test-key"}
	s.orchestrator = chat.NewOrchestrator(s.threads, s.client, s.credentials, mylog.NewDiscardLogger(),
		chat.WithSystemInstruction("Be terse."),
	)
}

func (s *OrchestratorTestSuite) messages(threadId string) []entity.Message {
	t, err := s.threads.GetThreadById(s, threadId)
	s.Require().NoError(err)
	return t.Messages
}

func (s *OrchestratorTestSuite) TestSendStreamsDeltas() {
	s.client.PushReply(generationtest.Reply{Fragments: []string{"Hel", "lo"}})

	var events []chat.Event
	result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "hi"}, chat.WithListener(func(e chat.Event) {
		events = append(events, e)
	}))
	s.Require().NoError(err)
	s.Require().Equal(chat.TurnSucceeded, result.Status)
	s.Equal("Hello", result.Message.Content)
	s.False(result.Message.IsStreaming)

	// append, delta, delta, finalize
	s.Require().Len(events, 4)
	s.Require().Len(events[0].Messages, 2)
	s.True(events[0].Messages[1].IsStreaming)
	s.Equal("", events[0].Messages[1].Content)
	s.Equal("Hel", events[1].Messages[1].Content)
	s.True(events[1].Messages[1].IsStreaming)
	s.Equal("Hello", events[2].Messages[1].Content)
	s.True(events[2].Messages[1].IsStreaming)
	s.False(events[3].Messages[1].IsStreaming)

	messages := s.messages(result.ThreadID)
	s.Require().Len(messages, 2)
	s.Equal("hi", messages[0].Content)
	s.Equal(result.Message.ID, messages[1].ID)

	call := s.client.LastCall()
	s.Equal("Be terse.", call.SystemInstruction)
	s.Require().Len(call.History, 1)
	s.Equal("hi", call.History[0].Content)
}

func (s *OrchestratorTestSuite) TestSendCreatesThreadAndTitles() {
	result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "Help me plan a 3-day trip to Tokyo"})
	s.Require().NoError(err)

	active, ok := s.threads.GetActive(s)
	s.Require().True(ok)
	s.Equal(result.ThreadID, active.ID)
	s.Equal("Help me plan a 3-day trip to T", active.Title)
}

func (s *OrchestratorTestSuite) TestSendToUnknownThreadUsesActive() {
	t, err := s.threads.CreateThread(s)
	s.Require().NoError(err)

	result, err := s.orchestrator.Send(s, "deleted-elsewhere", chat.Composer{Text: "hi"})
	s.Require().NoError(err)
	s.Equal(t.ID, result.ThreadID)
	s.Len(s.threads.GetThreads(s), 1)
}

func (s *OrchestratorTestSuite) TestSendRejectsEmptyComposer() {
	_, err := s.orchestrator.Send(s, "", chat.Composer{Text: "   "})
	s.ErrorIs(err, errors.ErrInvalidParams)
	s.Empty(s.threads.GetThreads(s))
}

func (s *OrchestratorTestSuite) TestSendImageOnly() {
	image := &entity.Attachment{Data: "aW1n", MimeType: "image/png"}
	result, err := s.orchestrator.Send(s, "", chat.Composer{Image: image})
	s.Require().NoError(err)
	s.Equal(chat.TurnSucceeded, result.Status)

	call := s.client.LastCall()
	s.Require().Len(call.History, 1)
	s.True(call.History[0].HasImage())
}

func (s *OrchestratorTestSuite) TestSendWhileInFlightIsIgnored() {
	release := make(chan struct{})
	s.client.StreamStart = make(chan struct{}, 1)
	s.client.PushReply(generationtest.Reply{Fragments: []string{"partial"}, Block: true, Release: release})

	done := make(chan *chat.TurnResult, 1)
	go func() {
		result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "first"})
		s.NoError(err)
		done <- result
	}()
	<-s.client.StreamStart
	s.True(s.orchestrator.Busy())

	ignored, err := s.orchestrator.Send(s, "", chat.Composer{Text: "second"})
	s.Require().NoError(err)
	s.Equal(chat.TurnIgnored, ignored.Status)

	close(release)
	result := <-done
	s.Require().Equal(chat.TurnSucceeded, result.Status)
	s.False(s.orchestrator.Busy())
	s.Equal(chat.StateIdle, s.orchestrator.State())

	messages := s.messages(result.ThreadID)
	s.Require().Len(messages, 2, "no second user message or placeholder")
	s.Equal("first", messages[0].Content)
	s.Len(s.client.Calls, 1)
}

func (s *OrchestratorTestSuite) TestFailureBeforeAnyDeltaRestoresComposer() {
	image := &entity.Attachment{Data: "aW1n", MimeType: "image/png"}
	s.client.PushReply(generationtest.Reply{Err: errors.NewGenerationError(errors.ErrTransport, "connection reset", nil)})

	result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "describe this", Image: image})
	s.Require().NoError(err)
	s.Require().Equal(chat.TurnFailed, result.Status)
	s.Require().NotNil(result.Restore)
	s.Equal("describe this", result.Restore.Text)
	s.Equal(image, result.Restore.Image)
	s.NotSame(image, result.Restore.Image)
	s.ErrorIs(result.Err, errors.ErrTransport)

	messages := s.messages(result.ThreadID)
	s.Require().Len(messages, 2, "empty placeholder is dropped")
	s.Equal(entity.RoleUser, messages[0].Role)
	s.True(messages[1].IsError())
	s.Contains(messages[1].Content, "(connection reset)")
	s.Zero(s.credentials.requests)
}

func (s *OrchestratorTestSuite) TestFailureMidStreamKeepsPartialReply() {
	s.client.PushReply(generationtest.Reply{
		Fragments: []string{"Once upon"},
		Err:       errors.NewGenerationError(errors.ErrQuota, "Error 429: quota", nil),
	})

	result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "tell a story"})
	s.Require().NoError(err)
	s.Require().Equal(chat.TurnFailed, result.Status)

	messages := s.messages(result.ThreadID)
	s.Require().Len(messages, 3)
	s.Equal("Once upon", messages[1].Content)
	s.True(messages[1].Failed)
	s.False(messages[1].IsStreaming)
	s.True(messages[2].IsError())

	// the next turn sends neither the partial reply nor the error
	_, err = s.orchestrator.Send(s, result.ThreadID, chat.Composer{Text: "try again"})
	s.Require().NoError(err)
	history := generation.BuildHistory(s.client.LastCall().History)
	s.Require().Len(history, 1)
	s.Equal("try again", history[0].Content)
}

func (s *OrchestratorTestSuite) TestMissingCredential() {
	s.credentials.key = ""
	s.client.PushReply(generationtest.Reply{Err: errors.NewGenerationError(errors.ErrAuth, generation.MissingKeyMessage, nil)})

	result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "hello"})
	s.Require().NoError(err)
	s.Require().Equal(chat.TurnFailed, result.Status)
	s.ErrorIs(result.Err, errors.ErrAuth)
	s.Equal("hello", result.Restore.Text)
	s.Equal(1, s.credentials.requests)

	messages := s.messages(result.ThreadID)
	errorCount := 0
	for _, m := range messages {
		if m.IsError() {
			errorCount++
			s.Equal(entity.RoleModel, m.Role)
			s.Contains(m.Content, generation.MissingKeyMessage)
		}
	}
	s.Equal(1, errorCount)
}

func (s *OrchestratorTestSuite) TestNotFoundRequestsCredential() {
	s.client.PushReply(generationtest.Reply{Err: generation.Classify(errors.New("Error 404: model not found"))})

	_, err := s.orchestrator.Send(s, "", chat.Composer{Text: "hello"})
	s.Require().NoError(err)
	s.Equal(1, s.credentials.requests)
}

func (s *OrchestratorTestSuite) TestCancelStopsLateDeltas() {
	release := make(chan struct{})
	s.client.StreamStart = make(chan struct{}, 1)
	s.client.PushReply(generationtest.Reply{Fragments: []string{"partial"}, Block: true, Release: release})

	var (
		mu     sync.Mutex
		events []chat.Event
	)
	done := make(chan *chat.TurnResult, 1)
	go func() {
		result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "long answer please"}, chat.WithListener(func(e chat.Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		}))
		s.NoError(err)
		done <- result
	}()
	<-s.client.StreamStart

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 2
	}, time.Second, time.Millisecond)

	s.True(s.orchestrator.Cancel())
	result := <-done
	s.Require().Equal(chat.TurnFailed, result.Status)
	s.ErrorIs(result.Err, context.Canceled)
	s.Equal("long answer please", result.Restore.Text)
	s.False(s.orchestrator.Cancel(), "nothing left to cancel")

	messages := s.messages(result.ThreadID)
	s.Require().Len(messages, 2, "no error message for a user cancel")
	s.Equal("partial", messages[1].Content)
	s.True(messages[1].Failed)
	s.False(messages[1].IsStreaming)
}

func (s *OrchestratorTestSuite) TestEmptyStreamFallsBack() {
	s.client.PushReply(generationtest.Reply{})

	result, err := s.orchestrator.Send(s, "", chat.Composer{Text: "hi"})
	s.Require().NoError(err)
	s.Equal(generation.EmptyResponseFallback, result.Message.Content)
}

func TestOrchestrator(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}
