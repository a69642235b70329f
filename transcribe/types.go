package transcribe

import "context"

// Message is the platform-neutral view of an inbound chat message.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string

	// VoiceFlagged is true when the platform explicitly marks the
	// message as a voice message.
	VoiceFlagged bool
	Attachments  []Attachment
}

// Attachment is an attachment on an inbound message.
type Attachment struct {
	Filename string
	URL      string
}

// Interaction is the platform-neutral view of a command invocation.
type Interaction struct {
	ID        string
	Token     string
	GuildID   string
	ChannelID string

	// Command is the invoked command name; Subcommand is set for
	// slash commands with subcommands.
	Command    string
	Subcommand string

	// Target is the resolved message for context-menu commands.
	Target *Message
}

// MessageRef identifies a message the orchestrator may edit later.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// FilePayload is a file uploaded as part of a display payload.
type FilePayload struct {
	Name string
	Data []byte
}

// DisplayPayload is the rendered form of a finished or failed job.
type DisplayPayload struct {
	Content string
	File    *FilePayload
}

// PermissionCheck is the tri-state answer of a reply permission pre-check.
type PermissionCheck int

const (
	// PermissionUnknown means introspection could not give a trustworthy
	// answer; the try-then-fallback policy governs.
	PermissionUnknown PermissionCheck = iota
	// PermissionAllowed means a threaded reply should succeed.
	PermissionAllowed
	// PermissionDenied means a threaded reply would be rejected.
	PermissionDenied
)

// Surface is the set of chat platform operations the orchestrator needs
// on conversational targets.
type Surface interface {
	// Reply posts a threaded reply to a message, suppressing the
	// mention-ping of the replied-to author and failing fast if the
	// target was deleted.
	Reply(ctx context.Context, channelID, messageID, content string) (MessageRef, error)

	// Send posts a plain message into a channel.
	Send(ctx context.Context, channelID, content string) (MessageRef, error)

	// Edit replaces the content of a previously posted message.
	Edit(ctx context.Context, ref MessageRef, payload DisplayPayload) error

	// MessageLink returns the canonical web link to a message.
	MessageLink(guildID, channelID, messageID string) string

	// CanReply is the permission pre-check fast path. Implementations
	// that cannot introspect reliably return PermissionUnknown.
	CanReply(ctx context.Context, msg Message) PermissionCheck
}

// InteractionSurface is the chat platform operations for command
// invocations.
type InteractionSurface interface {
	// Respond sends the immediate answer to an interaction.
	Respond(ctx context.Context, i Interaction, content string, ephemeral bool) error

	// EditResponse edits the original interaction response.
	EditResponse(ctx context.Context, i Interaction, payload DisplayPayload) error
}

// Future is an awaitable transcription result.
type Future interface {
	// Wait blocks until the job settles. The error carries the worker's
	// failure text verbatim when the worker rejected the task.
	Wait(ctx context.Context) (string, error)
}

// Dispatcher submits transcription requests to the remote worker queue.
type Dispatcher interface {
	// Submit enqueues a transcription of the audio at url. A returned
	// error means submission itself failed before dispatch confirmation.
	Submit(ctx context.Context, url string) (Future, error)
}

// RecordStore persists job bookkeeping records.
type RecordStore interface {
	Create(ctx context.Context, messageID, channelID, guildID, url string) error
	MarkDispatched(ctx context.Context, messageID string) error
	MarkDone(ctx context.Context, messageID, result string) error
	MarkError(ctx context.Context, messageID string, state State) error
}

// SettingsStore reads and writes per-channel feature toggles.
type SettingsStore interface {
	// Enabled reports whether auto-transcription is on for a channel.
	// Absent settings default to enabled. Implementations must return
	// true alongside any read error: a degraded store must not silently
	// disable the feature.
	Enabled(ctx context.Context, guildID, channelID string) (bool, error)
	SetEnabled(ctx context.Context, guildID, channelID string, enabled bool) error
}
