package slackapi

import "testing"

func TestParseMessageActionStandaloneMessageHasNoThread(t *testing.T) {
	payload := []byte(`{"type":"message_action","user":{"id":"U1"},"channel":{"id":"C1"},"message":{"text":"standalone","ts":"111.222"}}`)

	ev, ok := ParseMessageAction(payload)
	if !ok {
		t.Fatal("message action not parsed")
	}
	if ev.ThreadTS != "" {
		t.Fatalf("thread ts invented for a standalone message: %+v", ev)
	}
	if ev.MessageText != "standalone" || ev.MessageTS != "111.222" {
		t.Fatalf("message payload mismapped: %+v", ev)
	}
}

func TestParseMessageActionKeepsExplicitThreadTS(t *testing.T) {
	payload := []byte(`{"type":"message_action","user":{"id":"U1"},"channel":{"id":"C1"},"message":{"text":"reply","ts":"111.333","thread_ts":"111.222"}}`)

	ev, ok := ParseMessageAction(payload)
	if !ok {
		t.Fatal("message action not parsed")
	}
	if ev.ThreadTS != "111.222" || ev.MessageTS != "111.333" {
		t.Fatalf("timestamps mismapped: %+v", ev)
	}
}

func TestParseMessageActionIgnoresOtherInteractiveTypes(t *testing.T) {
	if _, ok := ParseMessageAction([]byte(`{"type":"block_actions"}`)); ok {
		t.Fatal("non-shortcut payload accepted")
	}
}

func TestParseMessageEventAcceptsFileShare(t *testing.T) {
	payload := []byte(`{"event":{"type":"message","channel_type":"im","channel":"D1","user":"U1","subtype":"file_share","files":[{"id":"F1","filetype":"txt"}]}}`)

	ev, ok := ParseMessageEvent(payload)
	if !ok {
		t.Fatal("file_share message dropped")
	}
	if len(ev.Files) != 1 || ev.Files[0].Filetype != "txt" {
		t.Fatalf("files not mapped: %+v", ev)
	}
}

func TestParseMessageEventDropsNonDM(t *testing.T) {
	payload := []byte(`{"event":{"type":"message","channel_type":"channel","channel":"C1","user":"U1","text":"hi"}}`)

	if _, ok := ParseMessageEvent(payload); ok {
		t.Fatal("channel message accepted as DM")
	}
}

func TestParseMessageEventDropsBotMessages(t *testing.T) {
	payload := []byte(`{"event":{"type":"message","channel_type":"im","channel":"D1","bot_id":"B1","text":"echo"}}`)

	if _, ok := ParseMessageEvent(payload); ok {
		t.Fatal("bot message accepted")
	}
}
