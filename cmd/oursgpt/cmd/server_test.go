package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/habiliai/oursgpt"
	"github.com/habiliai/oursgpt/chat"
	"github.com/habiliai/oursgpt/config"
	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/generation/generationtest"
	"github.com/habiliai/oursgpt/image"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/internal/mytesting"
	"github.com/stretchr/testify/suite"
)

type ServerTestSuite struct {
	mytesting.Suite

	client *generationtest.Client
	app    *oursgpt.App
	server *httptest.Server
}

func (s *ServerTestSuite) SetupTest() {
	s.Suite.SetupTest()

	cfg := config.NewConfig()
	cfg.Storage.Driver = config.StorageDriverMemory

	s.client = generationtest.NewClient()
	app, err := oursgpt.NewApp(s,
		oursgpt.WithConfig(cfg),
		oursgpt.WithLogger(mylog.NewDiscardLogger()),
		oursgpt.WithGenerationClient(s.client),
		oursgpt.WithCredentialProvider(credential.NewStaticProvider("test-key")),
	)
	s.Require().NoError(err)
	s.app = app
	s.server = httptest.NewServer(createServerHandler(app, []string{"*"}, mylog.NewDiscardLogger()))
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.app.Close())
	s.Suite.TearDownTest()
}

func (s *ServerTestSuite) do(method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(s, method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *ServerTestSuite) decode(resp *http.Response, v any) {
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func (s *ServerTestSuite) TestHealthz() {
	resp := s.do("GET", "/healthz", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]any
	s.decode(resp, &body)
	s.Equal("ok", body["status"])
	s.Equal(false, body["busy"])
}

func (s *ServerTestSuite) TestThreads() {
	resp := s.do("POST", "/threads", nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var created entity.Thread
	s.decode(resp, &created)
	s.NotEmpty(created.ID)

	resp = s.do("GET", "/threads", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var summaries []threadSummary
	s.decode(resp, &summaries)
	s.Require().Len(summaries, 1)
	s.Equal(created.ID, summaries[0].ID)

	resp = s.do("GET", "/threads/active", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var active entity.Thread
	s.decode(resp, &active)
	s.Equal(created.ID, active.ID)

	s.Equal(http.StatusNotFound, s.do("PUT", "/threads/active", map[string]string{"id": "missing"}).StatusCode)
	s.Equal(http.StatusNotFound, s.do("GET", "/threads/missing", nil).StatusCode)

	s.Equal(http.StatusNoContent, s.do("DELETE", "/threads/"+created.ID, nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do("GET", "/threads/active", nil).StatusCode)
}

func (s *ServerTestSuite) TestSendStreamsEvents() {
	s.client.PushReply(generationtest.Reply{Fragments: []string{"Hi ", "there"}})

	resp := s.do("POST", "/threads/new/messages", chat.Composer{Text: "hello"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	stream := string(body)

	s.Equal(4, strings.Count(stream, "event: update\n"))
	s.Require().Equal(1, strings.Count(stream, "event: done\n"))

	_, doneData, _ := strings.Cut(stream[strings.Index(stream, "event: done\n"):], "data: ")
	var done struct {
		Status   chat.TurnStatus `json:"status"`
		ThreadID string          `json:"threadId"`
		Message  entity.Message  `json:"message"`
	}
	s.Require().NoError(json.Unmarshal([]byte(strings.TrimSpace(doneData)), &done))
	s.Equal(chat.TurnSucceeded, done.Status)
	s.Equal("Hi there", done.Message.Content)

	resp = s.do("GET", "/threads/"+done.ThreadID, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var t entity.Thread
	s.decode(resp, &t)
	s.Len(t.Messages, 2)
}

func (s *ServerTestSuite) TestSendRejectsEmptyMessage() {
	resp := s.do("POST", "/threads/new/messages", chat.Composer{Text: " "})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *ServerTestSuite) TestImages() {
	resp := s.do("POST", "/images", map[string]string{"prompt": "cat in space", "style": "anime"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var result image.GenerateResult
	s.decode(resp, &result)
	s.Equal(image.GenerateSucceeded, result.Status)
	s.Equal("cat in space", result.Image.Prompt)

	resp = s.do("GET", "/images", nil)
	var history []entity.GeneratedImage
	s.decode(resp, &history)
	s.Require().Len(history, 1)

	resp = s.do("GET", "/images/styles", nil)
	var styles []entity.StyleInfo
	s.decode(resp, &styles)
	s.Len(styles, 5)

	s.Equal(http.StatusBadRequest, s.do("POST", "/images", map[string]string{"prompt": "x", "style": "sketch"}).StatusCode)
	s.Equal(http.StatusNoContent, s.do("DELETE", "/images/"+history[0].ID, nil).StatusCode)
	s.Equal(http.StatusNotFound, s.do("DELETE", "/images/"+history[0].ID, nil).StatusCode)
}

func (s *ServerTestSuite) TestImageFailure() {
	s.client.PushImage(generationtest.ImageReply{Err: errors.New("Error 429: quota exceeded")})

	resp := s.do("POST", "/images", map[string]string{"prompt": "a storm"})
	s.Require().Equal(http.StatusBadGateway, resp.StatusCode)
	var result image.GenerateResult
	s.decode(resp, &result)
	s.Equal(image.GenerateFailed, result.Status)
	s.Equal(image.QuotaMessage, result.ErrorMessage)
	s.Equal(image.RemediationConnectKey, result.Remediation)
}

func (s *ServerTestSuite) TestThemeAndHistory() {
	resp := s.do("GET", "/settings/theme", nil)
	var theme map[string]string
	s.decode(resp, &theme)
	s.Equal("dark", theme["theme"])

	resp = s.do("POST", "/settings/theme/toggle", nil)
	s.decode(resp, &theme)
	s.Equal("light", theme["theme"])

	s.Equal(http.StatusBadRequest, s.do("PUT", "/settings/theme", map[string]string{"theme": "sepia"}).StatusCode)
	s.Equal(http.StatusOK, s.do("PUT", "/settings/theme", map[string]string{"theme": "dark"}).StatusCode)

	s.do("POST", "/threads", nil)
	s.Equal(http.StatusNoContent, s.do("DELETE", "/history", nil).StatusCode)
	s.Empty(s.app.Threads().GetThreads(s))

	resp = s.do("GET", "/settings/theme", nil)
	s.decode(resp, &theme)
	s.Equal("dark", theme["theme"])
}

func (s *ServerTestSuite) TestCancelWithoutTurn() {
	resp := s.do("POST", "/chat/cancel", nil)
	var body map[string]bool
	s.decode(resp, &body)
	s.False(body["cancelled"])
}

func TestServer(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}
