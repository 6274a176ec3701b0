// Package slackevents serves the HTTP variant of the Slack event transport.
package slackevents

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nwehrle/memoloom/internal/gateway/slackapi"
	"github.com/nwehrle/memoloom/internal/model/memo"
	"github.com/nwehrle/memoloom/pkg/utils"
)

// Handler translates Slack HTTP callbacks into core events. Slack requires
// a fast acknowledgment, so dispatching always happens on a fresh goroutine
// detached from the request context.
type Handler struct {
	sink slackapi.EventSink
}

func New(sink slackapi.EventSink) *Handler {
	return &Handler{sink: sink}
}

// RegisterRoutes mounts the three Slack callback endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/commands", h.handleCommand)
	r.Post("/events", h.handleEvent)
	r.Post("/interactive", h.handleInteractive)
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	ev := memo.CommandInvoked{
		UserID: r.PostFormValue("user_id"),
		TeamID: r.PostFormValue("team_id"),
	}
	if ev.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	go h.sink.HandleCommand(context.Background(), ev)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("On it! Check your direct messages."))
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	var probe struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	switch probe.Type {
	case "url_verification":
		utils.RespondJSON(w, http.StatusOK, map[string]string{"challenge": probe.Challenge})
		return
	case "event_callback":
		if ev, ok := slackapi.ParseMessageEvent(body); ok {
			go h.sink.HandleMessage(context.Background(), ev)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleInteractive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	payload := r.PostFormValue("payload")
	if payload == "" {
		utils.RespondError(w, http.StatusBadRequest, "payload is required")
		return
	}

	if ev, ok := slackapi.ParseMessageAction([]byte(payload)); ok {
		go h.sink.HandleShortcut(context.Background(), ev)
	}

	w.WriteHeader(http.StatusOK)
}
