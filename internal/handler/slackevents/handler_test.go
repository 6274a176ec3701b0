package slackevents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nwehrle/memoloom/internal/model/memo"
)

type recordingSink struct {
	mu        sync.Mutex
	commands  []memo.CommandInvoked
	shortcuts []memo.ShortcutInvoked
	messages  []memo.DirectMessageReceived
	received  chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{received: make(chan struct{}, 8)}
}

func (s *recordingSink) HandleCommand(_ context.Context, ev memo.CommandInvoked) {
	s.mu.Lock()
	s.commands = append(s.commands, ev)
	s.mu.Unlock()
	s.received <- struct{}{}
}

func (s *recordingSink) HandleShortcut(_ context.Context, ev memo.ShortcutInvoked) {
	s.mu.Lock()
	s.shortcuts = append(s.shortcuts, ev)
	s.mu.Unlock()
	s.received <- struct{}{}
}

func (s *recordingSink) HandleMessage(_ context.Context, ev memo.DirectMessageReceived) {
	s.mu.Lock()
	s.messages = append(s.messages, ev)
	s.mu.Unlock()
	s.received <- struct{}{}
}

func (s *recordingSink) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-s.received:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not dispatched")
	}
}

func setupRouter() (*chi.Mux, *recordingSink) {
	sink := newRecordingSink()
	r := chi.NewRouter()
	New(sink).RegisterRoutes(r)
	return r, sink
}

func TestCommandAcksAndDispatches(t *testing.T) {
	r, sink := setupRouter()

	form := url.Values{"command": {"/memo"}, "user_id": {"U1"}, "team_id": {"T1"}}
	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	sink.waitOne(t)
	if len(sink.commands) != 1 || sink.commands[0].UserID != "U1" {
		t.Fatalf("command not dispatched: %+v", sink.commands)
	}
}

func TestCommandMissingUser(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/commands", strings.NewReader("command=%2Fmemo"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestURLVerificationChallenge(t *testing.T) {
	r, _ := setupRouter()

	body := `{"type":"url_verification","challenge":"abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload["challenge"] != "abc123" {
		t.Fatalf("challenge not echoed: %v", payload)
	}
}

func TestEventCallbackDispatchesDirectMessage(t *testing.T) {
	r, sink := setupRouter()

	body := `{"type":"event_callback","event":{"type":"message","channel_type":"im","channel":"D1","user":"U1","text":"hello"}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	sink.waitOne(t)
	if len(sink.messages) != 1 || sink.messages[0].ChannelID != "D1" || sink.messages[0].Text != "hello" {
		t.Fatalf("message not dispatched: %+v", sink.messages)
	}
}

func TestEventCallbackIgnoresBotMessages(t *testing.T) {
	r, sink := setupRouter()

	body := `{"type":"event_callback","event":{"type":"message","channel_type":"im","channel":"D1","bot_id":"B1","text":"echo"}}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	select {
	case <-sink.received:
		t.Fatal("bot message was dispatched")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInteractiveDispatchesShortcut(t *testing.T) {
	r, sink := setupRouter()

	payload := `{"type":"message_action","user":{"id":"U1"},"team":{"id":"T1"},"channel":{"id":"C1"},"message":{"text":"let's decide","ts":"111.222"}}`
	form := url.Values{"payload": {payload}}
	req := httptest.NewRequest(http.MethodPost, "/interactive", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	sink.waitOne(t)
	if len(sink.shortcuts) != 1 {
		t.Fatalf("shortcut not dispatched: %+v", sink.shortcuts)
	}
	got := sink.shortcuts[0]
	if got.UserID != "U1" || got.ChannelID != "C1" || got.MessageText != "let's decide" {
		t.Fatalf("unexpected shortcut event: %+v", got)
	}
}
