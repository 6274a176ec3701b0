// Package orchestrator drives the memo dialogue: it owns the stage
// transitions, decides when the planner and composer run, and translates
// every failure into a user-facing reply with a next step.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nwehrle/memoloom/internal/format"
	"github.com/nwehrle/memoloom/internal/gateway"
	"github.com/nwehrle/memoloom/internal/model/memo"
	"github.com/nwehrle/memoloom/internal/service/ingest"
	"github.com/nwehrle/memoloom/internal/service/session"
)

// Planner produces the clarifying questions for a context. The real planner
// never returns an empty list; an empty result makes the orchestrator skip
// straight to memo composition.
type Planner interface {
	Plan(ctx context.Context, contextText, participants string) []string
}

// Composer drafts memos. Implementations never fail; they degrade to a
// fallback memo internally.
type Composer interface {
	Compose(ctx context.Context, contextText, participants string) string
	ComposeWithClarification(ctx context.Context, contextText, participants string, questions []string, answer string) string
}

// Notifier extends the gateway with threaded replies, used to acknowledge
// shortcut invocations in their original thread.
type Notifier interface {
	PostInThread(ctx context.Context, channelID, threadTS, text string) error
}

const (
	promptForContext = "Hi! Let's put together a decision memo. Paste the text describing the decision, or upload a plain-text file. You can type \"stop\" at any time to cancel."
	questionsIntro   = "Before I draft the memo, a few clarifying questions. Please answer them all in a single reply:"
	cancelAck        = "Okay, I've cancelled this memo. Run the command again whenever you're ready."
	genericApology   = "Sorry, something went wrong on my end. Please try again in a moment."

	unsupportedFileReply = "I can only read plain-text files. Please upload a .txt file, or paste the text directly into this chat."
	downloadFailedReply  = "I couldn't download that file, so I've stopped this memo. Please start again and paste the text directly, or contact your administrator if uploads keep failing."
	missingScopeReply    = "I don't have permission to read uploaded files in this workspace. Ask an administrator to grant the app the files:read scope and start again, or paste the text directly."
	threadDeniedReply    = "I can't read that thread. Invite me to the channel with /invite and run the shortcut again."
	threadFetchReply     = "I couldn't fetch that thread just now. Please run the shortcut again in a moment."

	shortcutThreadAck = "On it! Check your direct messages to finish the decision memo."
)

// Orchestrator is the per-event state machine. One instance serves all
// channels; per-channel state lives in the session store.
type Orchestrator struct {
	store    *session.Store
	gw       gateway.Gateway
	ingest   *ingest.Service
	planner  Planner
	composer Composer
	notifier Notifier
}

func New(store *session.Store, gw gateway.Gateway, ing *ingest.Service, planner Planner, composer Composer) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		gw:       gw,
		ingest:   ing,
		planner:  planner,
		composer: composer,
	}
	if n, ok := gw.(Notifier); ok {
		o.notifier = n
	}
	return o
}

// HandleCommand starts a blank dialogue in the user's DM channel.
func (o *Orchestrator) HandleCommand(ctx context.Context, ev memo.CommandInvoked) {
	defer o.recoverPanic(ctx, "")

	channelID, err := o.gw.OpenDirectMessage(ctx, ev.UserID)
	if err != nil {
		log.Printf("[orchestrator] open DM for user=%s failed: %v", ev.UserID, err)
		return
	}

	sess := o.store.Create(channelID, memo.Session{
		UserID: ev.UserID,
		Stage:  memo.StageStarted,
	})
	log.Printf("[orchestrator] session=%s started via command for user=%s", sess.ID, ev.UserID)

	o.post(ctx, channelID, promptForContext)
}

// HandleShortcut seeds a dialogue from an existing message or thread and
// moves straight to clarifying questions.
func (o *Orchestrator) HandleShortcut(ctx context.Context, ev memo.ShortcutInvoked) {
	defer o.recoverPanic(ctx, "")

	channelID, err := o.gw.OpenDirectMessage(ctx, ev.UserID)
	if err != nil {
		log.Printf("[orchestrator] open DM for user=%s failed: %v", ev.UserID, err)
		return
	}

	contextText := ""
	var raw []memo.ThreadMessage
	if ev.ThreadTS != "" {
		contextText, raw, err = o.ingest.FromThread(ctx, ev.ChannelID, ev.ThreadTS)
		if err != nil {
			// Never proceed on partial thread data; end here without asking
			// questions. Access failures get the /invite remediation and
			// anything else gets a plain retry.
			log.Printf("[orchestrator] thread capture channel=%s failed: %v", ev.ChannelID, err)
			reply := threadFetchReply
			if errors.Is(err, ingest.ErrThreadAccessDenied) {
				reply = threadDeniedReply
			}
			o.post(ctx, channelID, reply)
			o.store.Delete(channelID)
			return
		}
	} else {
		contextText = o.ingest.FromText(ev.MessageText)
	}

	sess := o.store.Create(channelID, memo.Session{
		UserID:          ev.UserID,
		Stage:           memo.StageStarted,
		Context:         contextText,
		RawMessages:     raw,
		OriginalChannel: ev.ChannelID,
		ThreadTS:        ev.ThreadTS,
	})
	log.Printf("[orchestrator] session=%s started via shortcut for user=%s", sess.ID, ev.UserID)

	if o.notifier != nil && ev.ThreadTS != "" {
		if err := o.notifier.PostInThread(ctx, ev.ChannelID, ev.ThreadTS, shortcutThreadAck); err != nil {
			log.Printf("[orchestrator] thread ack failed: %v", err)
		}
	}

	o.askQuestions(ctx, channelID, sess)
}

// HandleMessage processes a user message in an active DM dialogue.
func (o *Orchestrator) HandleMessage(ctx context.Context, ev memo.DirectMessageReceived) {
	defer o.recoverPanic(ctx, ev.ChannelID)

	if memo.IsStopRequest(ev.Text) {
		if _, ok := o.store.Get(ev.ChannelID); ok {
			o.store.Delete(ev.ChannelID)
			o.post(ctx, ev.ChannelID, cancelAck)
		}
		return
	}

	sess, ok := o.store.Get(ev.ChannelID)
	if !ok {
		// No dialogue here; nothing expects this message.
		return
	}

	switch sess.Stage {
	case memo.StageStarted:
		o.handleContextMessage(ctx, ev, sess)
	case memo.StageAskingQuestions:
		o.handleClarificationReply(ctx, ev, sess)
	case memo.StageGenerating:
		// A memo is already being drafted for this channel.
	}
}

func (o *Orchestrator) handleContextMessage(ctx context.Context, ev memo.DirectMessageReceived, sess memo.Session) {
	if len(ev.Files) > 0 {
		content, err := o.ingest.FromFile(ctx, ev.Files[0])
		if err != nil {
			o.handleIngestionError(ctx, ev.ChannelID, err)
			return
		}
		sess = o.setContext(ev.ChannelID, sess, content)
		o.askQuestions(ctx, ev.ChannelID, sess)
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	sess = o.setContext(ev.ChannelID, sess, o.ingest.FromText(text))
	o.askQuestions(ctx, ev.ChannelID, sess)
}

func (o *Orchestrator) handleIngestionError(ctx context.Context, channelID string, err error) {
	log.Printf("[orchestrator] ingestion failed channel=%s: %v", channelID, err)

	switch {
	case errors.Is(err, ingest.ErrUnsupportedFileType):
		// Stay in Started so the user can retry with a usable input.
		o.post(ctx, channelID, unsupportedFileReply)
	case errors.Is(err, ingest.ErrMissingScope):
		o.post(ctx, channelID, missingScopeReply)
		o.store.Delete(channelID)
	default:
		o.post(ctx, channelID, downloadFailedReply)
		o.store.Delete(channelID)
	}
}

func (o *Orchestrator) handleClarificationReply(ctx context.Context, ev memo.DirectMessageReceived, sess memo.Session) {
	answer := strings.TrimSpace(ev.Text)

	if err := o.store.Update(ev.ChannelID, func(s *memo.Session) {
		s.ClarifyingAnswers = answer
		s.Stage = memo.StageGenerating
	}); err != nil {
		return
	}

	memoText := o.composer.ComposeWithClarification(ctx, sess.Context, sess.Participants, sess.ClarifyingQuestions, answer)

	// The user may have sent "stop" while the draft was in flight.
	if _, ok := o.store.Get(ev.ChannelID); !ok {
		log.Printf("[orchestrator] session=%s cancelled during generation, dropping memo", sess.ID)
		return
	}

	o.deliverMemo(ctx, ev.ChannelID, memoText)
	o.store.Delete(ev.ChannelID)
	log.Printf("[orchestrator] session=%s completed", sess.ID)
}

// askQuestions runs the planner and advances to AskingQuestions. An empty
// plan means there is nothing to ask, so the memo is composed directly and
// the dialogue ends.
func (o *Orchestrator) askQuestions(ctx context.Context, channelID string, sess memo.Session) {
	questions := o.planner.Plan(ctx, sess.Context, sess.Participants)

	if len(questions) == 0 {
		memoText := o.composer.Compose(ctx, sess.Context, sess.Participants)
		if _, ok := o.store.Get(channelID); !ok {
			log.Printf("[orchestrator] session=%s cancelled during generation, dropping memo", sess.ID)
			return
		}
		o.deliverMemo(ctx, channelID, memoText)
		o.store.Delete(channelID)
		return
	}

	if err := o.store.Update(channelID, func(s *memo.Session) {
		s.ClarifyingQuestions = questions
		s.Stage = memo.StageAskingQuestions
	}); err != nil {
		// Session vanished (cancelled) between planning and update.
		return
	}

	o.post(ctx, channelID, renderQuestions(questions))
}

func (o *Orchestrator) setContext(channelID string, sess memo.Session, content string) memo.Session {
	_ = o.store.Update(channelID, func(s *memo.Session) {
		s.Context = content
	})
	sess.Context = content
	return sess
}

func (o *Orchestrator) deliverMemo(ctx context.Context, channelID, memoText string) {
	for _, message := range format.RenderDelivery(format.Split(memoText)) {
		o.post(ctx, channelID, message)
	}
}

func (o *Orchestrator) post(ctx context.Context, channelID, text string) {
	if err := o.gw.PostMessage(ctx, channelID, text); err != nil {
		log.Printf("[orchestrator] post to channel=%s failed: %v", channelID, err)
	}
}

func renderQuestions(questions []string) string {
	var b strings.Builder
	b.WriteString(questionsIntro)
	for i, question := range questions {
		fmt.Fprintf(&b, "\n%d. %s", i+1, question)
	}
	return b.String()
}

// recoverPanic is the last line of defense per event: log, apologize, and
// leave every other session untouched.
func (o *Orchestrator) recoverPanic(ctx context.Context, channelID string) {
	r := recover()
	if r == nil {
		return
	}
	log.Printf("[orchestrator] panic while handling event: %v", r)
	if channelID != "" {
		o.post(ctx, channelID, genericApology)
	}
}
