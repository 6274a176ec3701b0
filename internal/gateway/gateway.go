package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/nwehrle/memoloom/internal/model/memo"
)

// Gateway is the chat-platform surface the core depends on. The concrete
// implementation lives in the slackapi package; tests substitute fakes.
type Gateway interface {
	// OpenDirectMessage opens (or resumes) the bot's DM channel with a user
	// and returns its channel ID.
	OpenDirectMessage(ctx context.Context, userID string) (string, error)

	// PostMessage posts plain mrkdwn text to a channel.
	PostMessage(ctx context.Context, channelID, text string) error

	// GetThreadReplies returns the root message and its replies in
	// chronological order.
	GetThreadReplies(ctx context.Context, channelID, threadTS string) ([]memo.ThreadMessage, error)

	// GetFileMetadata resolves an uploaded file to its download location.
	GetFileMetadata(ctx context.Context, fileID string) (FileMetadata, error)

	// DownloadFile fetches raw file content from a private URL using the
	// bot credentials.
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// FileMetadata is the subset of file info the core needs.
type FileMetadata struct {
	ID       string
	Name     string
	Filetype string
	URL      string
}

// APIError carries the platform's machine-readable error code, e.g.
// "missing_scope" or "not_in_channel".
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack api %s failed: %s", e.Method, e.Code)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// IsMissingScope reports whether the platform rejected a call because the
// bot token lacks an OAuth scope.
func IsMissingScope(err error) bool {
	return IsCode(err, "missing_scope")
}

// IsChannelInaccessible reports whether the bot cannot read the channel a
// thread lives in.
func IsChannelInaccessible(err error) bool {
	return IsCode(err, "not_in_channel") ||
		IsCode(err, "channel_not_found") ||
		IsCode(err, "thread_not_found")
}
