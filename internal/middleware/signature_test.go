package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signedRequest(secret, body string, ts time.Time) *http.Request {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", sign(secret, timestamp, []byte(body)))
	return req
}

func TestVerifySlackSignatureAccepts(t *testing.T) {
	const secret = "shhh"
	var gotBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	})

	handler := VerifySlackSignature(secret)(next)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedRequest(secret, `{"type":"event_callback"}`, time.Now()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotBody != `{"type":"event_callback"}` {
		t.Fatalf("body not restored for downstream handler: %q", gotBody)
	}
}

func TestVerifySlackSignatureRejectsBadSignature(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler reached with invalid signature")
	})

	handler := VerifySlackSignature("right-secret")(next)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedRequest("wrong-secret", "body", time.Now()))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestVerifySlackSignatureRejectsReplay(t *testing.T) {
	handler := VerifySlackSignature("secret")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, signedRequest("secret", "body", time.Now().Add(-10*time.Minute)))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale timestamp, got %d", resp.Code)
	}
}

func TestVerifySlackSignatureRejectsMissingHeaders(t *testing.T) {
	handler := VerifySlackSignature("secret")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader("body"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
