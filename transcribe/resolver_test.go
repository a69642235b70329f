package transcribe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	scriberrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

// fakeSurface is an in-memory Surface recording every call.
type fakeSurface struct {
	mu sync.Mutex

	canReply PermissionCheck
	replyErr error
	sendErr  error
	editErr  error

	replies []string
	sends   []string
	edits   map[string][]DisplayPayload

	nextID int
	events *eventLog
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{edits: make(map[string][]DisplayPayload)}
}

func (f *fakeSurface) record(event string) {
	if f.events != nil {
		f.events.add(event)
	}
}

func (f *fakeSurface) Reply(_ context.Context, channelID, messageID, content string) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return MessageRef{}, f.replyErr
	}
	f.replies = append(f.replies, content)
	f.nextID++
	f.record("reply")
	return MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("reply-%s-%d", messageID, f.nextID)}, nil
}

func (f *fakeSurface) Send(_ context.Context, channelID, content string) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return MessageRef{}, f.sendErr
	}
	f.sends = append(f.sends, content)
	f.nextID++
	f.record("send")
	return MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("fallback-%d", f.nextID)}, nil
}

func (f *fakeSurface) Edit(_ context.Context, ref MessageRef, payload DisplayPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits[ref.MessageID] = append(f.edits[ref.MessageID], payload)
	f.record("edit")
	return nil
}

func (f *fakeSurface) MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

func (f *fakeSurface) CanReply(context.Context, Message) PermissionCheck {
	return f.canReply
}

func (f *fakeSurface) editsFor(ref MessageRef) []DisplayPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edits[ref.MessageID]
}

var _ Surface = (*fakeSurface)(nil)

func testMessage() Message {
	return Message{
		ID:           "msg1",
		ChannelID:    "chan1",
		GuildID:      "guild1",
		VoiceFlagged: true,
		Attachments:  []Attachment{{Filename: "voice-message.ogg", URL: "https://cdn.example/vm.ogg"}},
	}
}

func TestResolver_DirectReply(t *testing.T) {
	surface := newFakeSurface()
	resolver := NewResolver(surface, logger.NewDefault("test"))

	target, err := resolver.Acquire(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if target.Prefix != "" {
		t.Fatalf("direct reply must carry no prefix, got %q", target.Prefix)
	}
	if len(surface.replies) != 1 || surface.replies[0] != ":writing_hand: Transcribing..." {
		t.Fatalf("unexpected replies: %v", surface.replies)
	}
	if len(surface.sends) != 0 {
		t.Fatal("direct reply must not fall back to a channel post")
	}
}

func TestResolver_PermissionFallback(t *testing.T) {
	surface := newFakeSurface()
	surface.replyErr = scriberrors.PermissionDenied("reply", fmt.Errorf("missing access"))
	resolver := NewResolver(surface, logger.NewDefault("test"))

	target, err := resolver.Acquire(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	link := "https://discord.com/channels/guild1/chan1/msg1"
	if target.Prefix != link+"\n" {
		t.Fatalf("fallback prefix = %q, want back-link", target.Prefix)
	}
	if len(surface.sends) != 1 || surface.sends[0] != link+" :writing_hand: Transcribing..." {
		t.Fatalf("unexpected fallback post: %v", surface.sends)
	}
}

func TestResolver_PrecheckDeniedSkipsReply(t *testing.T) {
	surface := newFakeSurface()
	surface.canReply = PermissionDenied
	surface.replyErr = fmt.Errorf("reply must not be attempted")
	resolver := NewResolver(surface, logger.NewDefault("test"))

	target, err := resolver.Acquire(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if target.Prefix == "" {
		t.Fatal("pre-checked denial must use the fallback path")
	}
	if len(surface.replies) != 0 {
		t.Fatal("reply must be skipped when the pre-check says denied")
	}
}

func TestResolver_NonPermissionErrorIsFatal(t *testing.T) {
	surface := newFakeSurface()
	surface.replyErr = fmt.Errorf("connection reset")
	resolver := NewResolver(surface, logger.NewDefault("test"))

	_, err := resolver.Acquire(context.Background(), testMessage())
	if err == nil {
		t.Fatal("non-permission reply failure must be fatal")
	}
	if !scriberrors.HasCode(err, scriberrors.ErrCodeReplyFailed) {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(surface.sends) != 0 {
		t.Fatal("non-permission failure must not trigger the fallback")
	}
}

func TestResolver_BothStrategiesFailing(t *testing.T) {
	surface := newFakeSurface()
	surface.replyErr = scriberrors.PermissionDenied("reply", fmt.Errorf("missing access"))
	surface.sendErr = scriberrors.PermissionDenied("send", fmt.Errorf("missing access"))
	resolver := NewResolver(surface, logger.NewDefault("test"))

	_, err := resolver.Acquire(context.Background(), testMessage())
	if err == nil {
		t.Fatal("both strategies failing must be fatal to the job")
	}
}
