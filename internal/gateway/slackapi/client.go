// Package slackapi implements the messaging gateway against the Slack Web
// API, plus the Socket Mode event transport.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nwehrle/memoloom/internal/gateway"
	"github.com/nwehrle/memoloom/internal/model/memo"
)

const defaultBaseURL = "https://slack.com/api"

// Client talks to the Slack Web API with a bot token.
type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// OpenDirectMessage opens the bot's DM channel with a user.
func (c *Client) OpenDirectMessage(ctx context.Context, userID string) (string, error) {
	var resp struct {
		apiEnvelope
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
	}

	payload := map[string]string{"users": userID}
	if err := c.postJSON(ctx, "conversations.open", payload, &resp); err != nil {
		return "", err
	}
	return resp.Channel.ID, nil
}

// PostMessage posts mrkdwn text to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	var resp apiEnvelope
	payload := map[string]string{"channel": channelID, "text": text}
	return c.postJSON(ctx, "chat.postMessage", payload, &resp)
}

// PostInThread posts a threaded reply.
func (c *Client) PostInThread(ctx context.Context, channelID, threadTS, text string) error {
	var resp apiEnvelope
	payload := map[string]string{"channel": channelID, "text": text, "thread_ts": threadTS}
	return c.postJSON(ctx, "chat.postMessage", payload, &resp)
}

// GetThreadReplies fetches the root message and its replies in order.
func (c *Client) GetThreadReplies(ctx context.Context, channelID, threadTS string) ([]memo.ThreadMessage, error) {
	var resp struct {
		apiEnvelope
		Messages []struct {
			User     string `json:"user"`
			Text     string `json:"text"`
			Subtype  string `json:"subtype"`
			BotID    string `json:"bot_id"`
			TS       string `json:"ts"`
			ThreadTS string `json:"thread_ts"`
		} `json:"messages"`
	}

	query := url.Values{"channel": {channelID}, "ts": {threadTS}, "limit": {"200"}}
	if err := c.get(ctx, "conversations.replies", query, &resp); err != nil {
		return nil, err
	}

	messages := make([]memo.ThreadMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, memo.ThreadMessage{
			Sender:   m.User,
			Text:     m.Text,
			Subtype:  m.Subtype,
			FromBot:  m.BotID != "",
			TS:       m.TS,
			ThreadTS: m.ThreadTS,
		})
	}
	return messages, nil
}

// GetFileMetadata resolves an uploaded file to its private download URL.
func (c *Client) GetFileMetadata(ctx context.Context, fileID string) (gateway.FileMetadata, error) {
	var resp struct {
		apiEnvelope
		File struct {
			ID                 string `json:"id"`
			Name               string `json:"name"`
			Filetype           string `json:"filetype"`
			URLPrivateDownload string `json:"url_private_download"`
			URLPrivate         string `json:"url_private"`
		} `json:"file"`
	}

	query := url.Values{"file": {fileID}}
	if err := c.get(ctx, "files.info", query, &resp); err != nil {
		return gateway.FileMetadata{}, err
	}

	downloadURL := resp.File.URLPrivateDownload
	if downloadURL == "" {
		downloadURL = resp.File.URLPrivate
	}

	return gateway.FileMetadata{
		ID:       resp.File.ID,
		Name:     resp.File.Name,
		Filetype: resp.File.Filetype,
		URL:      downloadURL,
	}, nil
}

// DownloadFile fetches private file content with the bot token.
func (c *Client) DownloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, &gateway.APIError{Method: "files.download", Code: "missing_scope"}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &gateway.APIError{Method: "files.download", Code: fmt.Sprintf("http_%d", resp.StatusCode)}
	}

	return io.ReadAll(resp.Body)
}

func (c *Client) postJSON(ctx context.Context, method string, payload any, out interface{ envelope() apiEnvelope }) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	return c.do(req, method, out)
}

func (c *Client) get(ctx context.Context, method string, query url.Values, out interface{ envelope() apiEnvelope }) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+method+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out interface{ envelope() apiEnvelope }) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if env := out.envelope(); !env.OK {
		return &gateway.APIError{Method: method, Code: env.Error}
	}
	return nil
}

func (e apiEnvelope) envelope() apiEnvelope { return e }
