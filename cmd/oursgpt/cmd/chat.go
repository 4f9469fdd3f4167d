package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/habiliai/oursgpt"
	"github.com/habiliai/oursgpt/chat"
	"github.com/habiliai/oursgpt/config"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/image"
	"github.com/habiliai/oursgpt/internal/msgutils"
	"github.com/habiliai/oursgpt/internal/stringutils"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var (
	modelColor   = color.New(color.FgWhite)
	infoColor    = color.New(color.FgHiBlack)
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
)

const chatHelp = `/new                      start a new thread
/threads                  list threads
/switch <id>              switch to a thread
/delete                   delete the current thread
/attach <file>            attach an image to the next message
/image <style> <prompt>   generate an image
/theme                    toggle the theme
/quit                     leave`

type chatSession struct {
	app      *oursgpt.App
	line     *liner.State
	threadId string

	// restored composer after a failed turn
	pendingText  string
	pendingImage *entity.Attachment
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	params := &struct {
		ThreadID  string
		NewThread bool
	}{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat interactively, streaming the replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Ctrl+C cancels the running turn rather than the whole session
			ctx := context.WithoutCancel(cmd.Context())

			app, err := newApp(ctx, flags, true)
			if err != nil {
				return err
			}
			defer app.Close()

			s := &chatSession{app: app, threadId: params.ThreadID}
			if params.NewThread {
				t, err := app.Threads().CreateThread(ctx)
				if err != nil {
					return err
				}
				s.threadId = t.ID
			} else if s.threadId == "" {
				if t, ok := app.Threads().GetActive(ctx); ok {
					s.threadId = t.ID
				}
			} else if err := app.Threads().SetActive(ctx, s.threadId); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				for range sigCh {
					if app.Chat().Cancel() {
						fmt.Println()
						infoColor.Println("[cancelled]")
					}
				}
			}()

			s.line = liner.NewLiner()
			defer s.line.Close()
			s.line.SetCtrlCAborts(true)
			s.loadHistory()
			defer s.saveHistory()

			return s.run(ctx)
		},
	}

	cmd.Flags().StringVar(&params.ThreadID, "thread", "", "Thread to continue")
	cmd.Flags().BoolVar(&params.NewThread, "new", false, "Start a new thread")

	return cmd
}

func (s *chatSession) historyFile() string {
	return filepath.Join(config.HomeDir(), "chat_history")
}

func (s *chatSession) loadHistory() {
	if f, err := os.Open(s.historyFile()); err == nil {
		_, _ = s.line.ReadHistory(f)
		_ = f.Close()
	}
}

func (s *chatSession) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(s.historyFile()), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(s.historyFile(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = s.line.WriteHistory(f)
}

func (s *chatSession) run(ctx context.Context) error {
	s.printIntro(ctx)

	for {
		input, err := s.line.PromptWithSuggestion("you> ", s.pendingText, -1)
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D
			fmt.Println()
			return nil
		}
		s.pendingText = ""

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		if name, args, ok := msgutils.ParseCommand(input); ok {
			quit, err := s.command(ctx, name, args)
			if err != nil {
				errorColor.Fprintf(os.Stderr, "[error] %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		s.send(ctx, chat.Composer{Text: input, Image: s.pendingImage})
	}
}

func (s *chatSession) printIntro(ctx context.Context) {
	infoColor.Println("OursGPT. Type /help for commands.")
	if s.threadId != "" {
		if t, err := s.app.Threads().GetThreadById(ctx, s.threadId); err == nil && len(t.Messages) > 0 {
			infoColor.Printf("continuing %q (%d messages)\n", t.Title, len(t.Messages))
			return
		}
	}
	infoColor.Println("Try one of these:")
	for _, suggestion := range chat.Suggestions {
		infoColor.Printf("  - %s\n", suggestion)
	}
}

func (s *chatSession) send(ctx context.Context, composer chat.Composer) {
	printer := &streamPrinter{}
	modelColor.Print("oursgpt> ")

	result, err := s.app.Chat().Send(ctx, s.threadId, composer, chat.WithListener(printer.onEvent))
	fmt.Println()
	if err != nil {
		errorColor.Fprintf(os.Stderr, "[error] %v\n", err)
		return
	}

	switch result.Status {
	case chat.TurnIgnored:
		infoColor.Println("[busy] a reply is still streaming")
	case chat.TurnSucceeded:
		s.threadId = result.ThreadID
		s.pendingImage = nil
	case chat.TurnFailed:
		s.threadId = result.ThreadID
		if !errors.Is(result.Err, context.Canceled) {
			errorColor.Fprintln(os.Stderr, chat.FormatError(result.Err))
		}
		if result.Restore != nil {
			s.pendingText = result.Restore.Text
			s.pendingImage = result.Restore.Image
		}
	}
}

// streamPrinter writes the growing reply of the turn's placeholder.
type streamPrinter struct {
	id      string
	printed int
}

func (p *streamPrinter) onEvent(e chat.Event) {
	if len(e.Messages) == 0 {
		return
	}
	if p.id == "" {
		last := e.Messages[len(e.Messages)-1]
		if last.Role != entity.RoleModel || !last.IsStreaming {
			return
		}
		p.id = last.ID
	}
	for _, m := range e.Messages {
		if m.ID == p.id && len(m.Content) > p.printed {
			modelColor.Print(stringutils.SanitizeUnicodeString(m.Content[p.printed:]))
			p.printed = len(m.Content)
		}
	}
}

func (s *chatSession) command(ctx context.Context, name, rest string) (quit bool, err error) {
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		infoColor.Println(chatHelp)
	case "new":
		t, err := s.app.Threads().CreateThread(ctx)
		if err != nil {
			return false, err
		}
		s.threadId = t.ID
		successColor.Printf("new thread %s\n", t.ID)
	case "threads":
		for _, t := range s.app.Threads().GetThreads(ctx) {
			marker := " "
			if t.ID == s.threadId {
				marker = "*"
			}
			fmt.Printf("%s %s  %s (%d)\n", marker, t.ID, t.Title, len(t.Messages))
		}
	case "switch":
		if rest == "" {
			return false, errors.Wrapf(errors.ErrInvalidParams, "usage: /switch <id>")
		}
		if err := s.app.Threads().SetActive(ctx, rest); err != nil {
			return false, err
		}
		s.threadId = rest
		successColor.Printf("switched to %s\n", rest)
	case "delete":
		if s.threadId == "" {
			return false, errors.Wrapf(errors.ErrInvalidParams, "no thread selected")
		}
		if err := s.app.Threads().DeleteThread(ctx, s.threadId); err != nil {
			return false, err
		}
		successColor.Printf("deleted %s\n", s.threadId)
		s.threadId = ""
	case "attach":
		attachment, err := readImageFile(rest)
		if err != nil {
			return false, err
		}
		s.pendingImage = attachment
		successColor.Printf("attached %s (%s)\n", rest, attachment.MimeType)
	case "image":
		styleName, prompt := msgutils.SplitFirst(rest)
		style, err := entity.ParseImageStyle(styleName)
		if err != nil {
			return false, err
		}
		result, err := s.app.Images().Generate(ctx, prompt, style)
		if err != nil {
			return false, err
		}
		printImageResult(result)
	case "theme":
		theme, err := s.app.Settings().ToggleTheme(ctx)
		if err != nil {
			return false, err
		}
		successColor.Printf("theme: %s\n", theme)
	default:
		return false, errors.Wrapf(errors.ErrInvalidParams, "unknown command /%s, try /help", name)
	}
	return false, nil
}

func readImageFile(path string) (*entity.Attachment, error) {
	if path == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "usage: /attach <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "%s is not an image (%s)", path, mimeType)
	}
	return &entity.Attachment{
		Data:     encodeBase64(data),
		MimeType: mimeType,
	}, nil
}

func printImageResult(result *image.GenerateResult) {
	switch result.Status {
	case image.GenerateIgnored:
		infoColor.Println("[busy] an image is still generating")
	case image.GenerateFailed:
		errorColor.Fprintln(os.Stderr, result.ErrorMessage)
		if result.Remediation == image.RemediationConnectKey {
			infoColor.Println("Set GEMINI_API_KEY to a key with image generation access.")
		}
	default:
		successColor.Printf("generated %s (%s, %d bytes)\n", result.Image.ID, result.Image.Style.DisplayName(), len(result.Image.URL))
	}
}
