package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nwehrle/memoloom/internal/gateway"
	"github.com/nwehrle/memoloom/internal/model/memo"
)

// Ingestion failures are always user-facing; the orchestrator maps each
// sentinel to remediation text.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileDownloadFailed  = errors.New("file download failed")
	ErrMissingScope        = errors.New("bot token is missing a required scope")
	ErrThreadAccessDenied  = errors.New("thread is not accessible to the bot")
	ErrThreadFetchFailed   = errors.New("thread retrieval failed")
)

// MaxContextChars caps the normalized context blob regardless of producer.
const MaxContextChars = 25000

const truncationNotice = "\n\n[Content truncated at 25,000 characters.]"

// supportedFiletypes lists the plain-text types we accept for upload.
var supportedFiletypes = map[string]bool{
	"text":  true,
	"txt":   true,
	"plain": true,
}

// Service normalizes the three input shapes into a single context string.
type Service struct {
	gw gateway.Gateway
}

func NewService(gw gateway.Gateway) *Service {
	return &Service{gw: gw}
}

// FromText uses the pasted message text verbatim, subject to the cap.
func (s *Service) FromText(text string) string {
	return Cap(text)
}

// FromThread reconstructs a thread transcript, dropping automated messages
// (bot identities and platform subtypes) and rendering the rest as
// "sender: text" lines joined by blank lines, in original order.
func (s *Service) FromThread(ctx context.Context, channelID, threadTS string) (string, []memo.ThreadMessage, error) {
	replies, err := s.gw.GetThreadReplies(ctx, channelID, threadTS)
	if err != nil {
		// Never proceed on partial thread data. Access failures carry their
		// own remediation; everything else is a transient fetch failure.
		if gateway.IsChannelInaccessible(err) {
			return "", nil, fmt.Errorf("%w: %v", ErrThreadAccessDenied, err)
		}
		return "", nil, fmt.Errorf("%w: %v", ErrThreadFetchFailed, err)
	}

	return RenderTranscript(replies), replies, nil
}

// FromFile accepts a plain-text upload, downloads it and normalizes it to
// the capped context blob. Unsupported types fail before any network call.
func (s *Service) FromFile(ctx context.Context, file memo.FileRef) (string, error) {
	if !supportedFiletypes[strings.ToLower(file.Filetype)] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, file.Filetype)
	}

	meta, err := s.gw.GetFileMetadata(ctx, file.ID)
	if err != nil {
		return "", wrapDownloadErr(err)
	}

	raw, err := s.gw.DownloadFile(ctx, meta.URL)
	if err != nil {
		return "", wrapDownloadErr(err)
	}

	return Cap(string(raw)), nil
}

func wrapDownloadErr(err error) error {
	if gateway.IsMissingScope(err) {
		return fmt.Errorf("%w: %v", ErrMissingScope, err)
	}
	return fmt.Errorf("%w: %v", ErrFileDownloadFailed, err)
}

// RenderTranscript formats thread messages for use as memo context.
func RenderTranscript(replies []memo.ThreadMessage) string {
	lines := make([]string, 0, len(replies))
	for _, msg := range replies {
		if msg.FromBot || msg.Subtype != "" {
			continue
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Sender, text))
	}
	return Cap(strings.Join(lines, "\n\n"))
}

// Cap truncates content to MaxContextChars characters, appending a notice
// when anything was cut. The cut falls on a rune boundary so capped content
// stays valid UTF-8.
func Cap(content string) string {
	if utf8.RuneCountInString(content) <= MaxContextChars {
		return content
	}
	return string([]rune(content)[:MaxContextChars]) + truncationNotice
}
