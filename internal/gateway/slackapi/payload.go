package slackapi

import (
	"encoding/json"
	"log"

	"github.com/nwehrle/memoloom/internal/model/memo"
)

// ParseMessageAction translates an interactive "message_action" payload
// (the message shortcut) into the core shortcut event. Other interactive
// payload types are ignored.
func ParseMessageAction(payload []byte) (memo.ShortcutInvoked, bool) {
	var action struct {
		Type string `json:"type"`
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Team struct {
			ID string `json:"id"`
		} `json:"team"`
		Channel struct {
			ID string `json:"id"`
		} `json:"channel"`
		Message struct {
			Text     string `json:"text"`
			TS       string `json:"ts"`
			ThreadTS string `json:"thread_ts"`
		} `json:"message"`
	}

	if err := json.Unmarshal(payload, &action); err != nil {
		log.Printf("[slackapi] bad interactive payload: %v", err)
		return memo.ShortcutInvoked{}, false
	}
	if action.Type != "message_action" {
		return memo.ShortcutInvoked{}, false
	}

	// Slack sets message.thread_ts on thread roots and replies. When it is
	// absent the message stands alone, and its text in the payload is all
	// the context there is.
	return memo.ShortcutInvoked{
		UserID:      action.User.ID,
		TeamID:      action.Team.ID,
		ChannelID:   action.Channel.ID,
		MessageText: action.Message.Text,
		MessageTS:   action.Message.TS,
		ThreadTS:    action.Message.ThreadTS,
	}, true
}

// ParseMessageEvent translates an events-api callback into a DM message
// event. Non-DM channels, bot messages and subtyped messages are dropped
// so the bot never reacts to its own replies.
func ParseMessageEvent(payload []byte) (memo.DirectMessageReceived, bool) {
	var callback struct {
		Event struct {
			Type        string `json:"type"`
			ChannelType string `json:"channel_type"`
			Channel     string `json:"channel"`
			User        string `json:"user"`
			Text        string `json:"text"`
			BotID       string `json:"bot_id"`
			Subtype     string `json:"subtype"`
			Files       []struct {
				ID       string `json:"id"`
				Filetype string `json:"filetype"`
			} `json:"files"`
		} `json:"event"`
	}

	if err := json.Unmarshal(payload, &callback); err != nil {
		log.Printf("[slackapi] bad event payload: %v", err)
		return memo.DirectMessageReceived{}, false
	}

	ev := callback.Event
	if ev.Type != "message" || ev.ChannelType != "im" {
		return memo.DirectMessageReceived{}, false
	}
	if ev.BotID != "" || (ev.Subtype != "" && ev.Subtype != "file_share") {
		return memo.DirectMessageReceived{}, false
	}

	files := make([]memo.FileRef, 0, len(ev.Files))
	for _, f := range ev.Files {
		files = append(files, memo.FileRef{ID: f.ID, Filetype: f.Filetype})
	}

	return memo.DirectMessageReceived{
		ChannelID: ev.Channel,
		UserID:    ev.User,
		Text:      ev.Text,
		Files:     files,
	}, true
}
