package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nwehrle/memoloom/internal/model/memo"
)

// EventSink receives the translated inbound events. The orchestrator
// implements it.
type EventSink interface {
	HandleCommand(ctx context.Context, ev memo.CommandInvoked)
	HandleShortcut(ctx context.Context, ev memo.ShortcutInvoked)
	HandleMessage(ctx context.Context, ev memo.DirectMessageReceived)
}

// SocketClient maintains a Socket Mode connection: it opens a websocket URL
// with the app token, reads event envelopes, acks each one immediately and
// dispatches the translated event on its own goroutine.
type SocketClient struct {
	appToken   string
	baseURL    string
	sink       EventSink
	dialer     *websocket.Dialer
	httpClient *http.Client

	maxRetries int
	retryDelay time.Duration
}

func NewSocketClient(appToken string, sink EventSink) *SocketClient {
	return &SocketClient{
		appToken: appToken,
		baseURL:  defaultBaseURL,
		sink:     sink,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 5,
		retryDelay: 3 * time.Second,
	}
}

// Run connects and processes envelopes until the context is cancelled.
// Connection drops trigger bounded reconnect attempts; the retry budget
// resets after each successful session.
func (sc *SocketClient) Run(ctx context.Context) error {
	retries := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		connected, err := sc.runOnce(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			// The session was established, so the drop is a fresh fault:
			// only consecutive failures to connect count against the budget.
			retries = 0
		}

		retries++
		if retries > sc.maxRetries {
			return fmt.Errorf("socket mode gave up after %d reconnect attempts: %w", sc.maxRetries, err)
		}
		log.Printf("[socketmode] connection lost (attempt %d/%d): %v", retries, sc.maxRetries, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sc.retryDelay):
		}
	}
}

// runOnce reports whether a websocket session was established alongside the
// error that ended it.
func (sc *SocketClient) runOnce(ctx context.Context) (bool, error) {
	wsURL, err := sc.openConnection(ctx)
	if err != nil {
		return false, err
	}

	conn, resp, err := sc.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("socket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return false, fmt.Errorf("socket dial failed: %w", err)
	}
	defer conn.Close()

	log.Printf("[socketmode] connected")

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("socket read failed: %w", err)
		}
		sc.handleEnvelope(ctx, conn, data)
	}
}

// openConnection calls apps.connections.open with the app-level token.
func (sc *SocketClient) openConnection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.baseURL+"/apps.connections.open", nil)
	if err != nil {
		return "", fmt.Errorf("build connections.open request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sc.appToken)

	resp, err := sc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call connections.open: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		URL   string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode connections.open response: %w", err)
	}
	if !payload.OK {
		return "", fmt.Errorf("connections.open rejected: %s", payload.Error)
	}
	return payload.URL, nil
}

type envelope struct {
	Type       string          `json:"type"`
	EnvelopeID string          `json:"envelope_id"`
	Payload    json.RawMessage `json:"payload"`
}

func (sc *SocketClient) handleEnvelope(ctx context.Context, conn *websocket.Conn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("[socketmode] dropping unreadable envelope: %v", err)
		return
	}

	if env.EnvelopeID != "" {
		ack := map[string]string{"envelope_id": env.EnvelopeID}
		if err := conn.WriteJSON(ack); err != nil {
			log.Printf("[socketmode] ack failed for envelope=%s: %v", env.EnvelopeID, err)
		}
	}

	switch env.Type {
	case "hello", "disconnect":
		return
	case "slash_commands":
		sc.dispatchCommand(ctx, env.Payload)
	case "interactive":
		sc.dispatchInteractive(ctx, env.Payload)
	case "events_api":
		sc.dispatchEvent(ctx, env.Payload)
	}
}

func (sc *SocketClient) dispatchCommand(ctx context.Context, payload json.RawMessage) {
	var cmd struct {
		UserID string `json:"user_id"`
		TeamID string `json:"team_id"`
	}
	if err := json.Unmarshal(payload, &cmd); err != nil {
		log.Printf("[socketmode] bad slash command payload: %v", err)
		return
	}
	go sc.sink.HandleCommand(ctx, memo.CommandInvoked{UserID: cmd.UserID, TeamID: cmd.TeamID})
}

func (sc *SocketClient) dispatchInteractive(ctx context.Context, payload json.RawMessage) {
	shortcut, ok := ParseMessageAction(payload)
	if !ok {
		return
	}
	go sc.sink.HandleShortcut(ctx, shortcut)
}

func (sc *SocketClient) dispatchEvent(ctx context.Context, payload json.RawMessage) {
	message, ok := ParseMessageEvent(payload)
	if !ok {
		return
	}
	go sc.sink.HandleMessage(ctx, message)
}
