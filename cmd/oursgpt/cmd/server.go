package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/habiliai/oursgpt"
	"github.com/habiliai/oursgpt/chat"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
	"github.com/habiliai/oursgpt/image"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/habiliai/oursgpt/settings"
	"github.com/mokiat/gog"
)

type threadSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

type turnDone struct {
	*chat.TurnResult
	Error string `json:"error,omitempty"`
}

func summarize(t entity.Thread) threadSummary {
	return threadSummary{
		ID:           t.ID,
		Title:        t.Title,
		UpdatedAt:    t.UpdatedAt,
		MessageCount: len(t.Messages),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidParams):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidParams, "invalid request body: %v", err)
	}
	return nil
}

func createThreadsRouter(router *mux.Router, app *oursgpt.App) {
	threads := app.Threads()

	router.HandleFunc("/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, gog.Map(threads.GetThreads(r.Context()), summarize))
	}).Methods("GET")

	router.HandleFunc("/threads", func(w http.ResponseWriter, r *http.Request) {
		t, err := threads.CreateThread(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}).Methods("POST")

	// registered before /threads/{id} so "active" is not taken for an id
	router.HandleFunc("/threads/active", func(w http.ResponseWriter, r *http.Request) {
		t, ok := threads.GetActive(r.Context())
		if !ok {
			writeError(w, errors.Wrapf(errors.ErrNotFound, "no active thread"))
			return
		}
		writeJSON(w, http.StatusOK, t)
	}).Methods("GET")

	router.HandleFunc("/threads/active", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID string `json:"id"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := threads.SetActive(r.Context(), req.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("PUT")

	router.HandleFunc("/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		t, err := threads.GetThreadById(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}).Methods("GET")

	router.HandleFunc("/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := threads.DeleteThread(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")

	router.HandleFunc("/threads/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		handleSend(w, r, app)
	}).Methods("POST")
}

// handleSend streams the turn as server-sent events: one "update" per
// message change, then "done" with the turn result.
func handleSend(w http.ResponseWriter, r *http.Request, app *oursgpt.App) {
	var composer chat.Composer
	if err := decodeBody(r, &composer); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.Wrapf(errors.ErrInternal, "streaming unsupported"))
		return
	}

	started := false
	event := func(name string, v any) {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		data, err := json.Marshal(v)
		if err != nil {
			app.Logger().Warn("failed to encode event", slog.String("event", name), slog.Any("error", err))
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
		flusher.Flush()
	}

	result, err := app.Chat().Send(r.Context(), mux.Vars(r)["id"], composer, chat.WithListener(func(e chat.Event) {
		event("update", e)
	}))
	if err != nil {
		if !started {
			writeError(w, err)
			return
		}
		event("done", turnDone{TurnResult: &chat.TurnResult{Status: chat.TurnFailed}, Error: err.Error()})
		return
	}
	if result.Status == chat.TurnIgnored {
		writeJSON(w, http.StatusConflict, result)
		return
	}

	done := turnDone{TurnResult: result}
	if result.Err != nil {
		done.Error = result.Err.Error()
	}
	event("done", done)
}

func createImagesRouter(router *mux.Router, app *oursgpt.App) {
	studio := app.Images()

	router.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, studio.History(r.Context()))
	}).Methods("GET")

	router.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
			Style  string `json:"style"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		style := entity.ImageStyleRealistic
		if req.Style != "" {
			parsed, err := entity.ParseImageStyle(req.Style)
			if err != nil {
				writeError(w, err)
				return
			}
			style = parsed
		}

		result, err := studio.Generate(r.Context(), req.Prompt, style)
		if err != nil {
			writeError(w, err)
			return
		}
		switch result.Status {
		case image.GenerateIgnored:
			writeJSON(w, http.StatusConflict, result)
		case image.GenerateFailed:
			writeJSON(w, http.StatusBadGateway, result)
		default:
			writeJSON(w, http.StatusCreated, result)
		}
	}).Methods("POST")

	router.HandleFunc("/images/styles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, studio.Styles())
	}).Methods("GET")

	router.HandleFunc("/images/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := studio.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
}

func createSettingsRouter(router *mux.Router, app *oursgpt.App) {
	svc := app.Settings()

	themeResponse := func(w http.ResponseWriter, theme settings.Theme) {
		writeJSON(w, http.StatusOK, map[string]settings.Theme{"theme": theme})
	}

	router.HandleFunc("/settings/theme", func(w http.ResponseWriter, r *http.Request) {
		theme, err := svc.Theme(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		themeResponse(w, theme)
	}).Methods("GET")

	router.HandleFunc("/settings/theme", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Theme string `json:"theme"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := svc.SetTheme(r.Context(), settings.Theme(req.Theme)); err != nil {
			writeError(w, err)
			return
		}
		themeResponse(w, settings.Theme(req.Theme))
	}).Methods("PUT")

	router.HandleFunc("/settings/theme/toggle", func(w http.ResponseWriter, r *http.Request) {
		theme, err := svc.ToggleTheme(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		themeResponse(w, theme)
	}).Methods("POST")

	router.HandleFunc("/history", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearHistory(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
}

func createServerHandler(app *oursgpt.App, allowedOrigins []string, logger *mylog.Logger) http.Handler {
	router := mux.NewRouter()
	createThreadsRouter(router, app)
	createImagesRouter(router, app)
	createSettingsRouter(router, app)

	router.HandleFunc("/chat/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": app.Chat().Cancel()})
	}).Methods("POST")

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"busy":   app.Chat().Busy(),
		})
	}).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)
	logging := func(h http.Handler) http.Handler {
		return handlers.CustomLoggingHandler(nil, h, func(_ io.Writer, p handlers.LogFormatterParams) {
			logger.Debug("http request",
				slog.String("method", p.Request.Method),
				slog.String("path", p.URL.Path),
				slog.Int("status", p.StatusCode),
				slog.Int("size", p.Size),
			)
		})
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		router.ServeHTTP(w, r.WithContext(ctx))
	})

	return cors(recovery(logging(handler)))
}
