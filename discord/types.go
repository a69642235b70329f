package discord

import "fmt"

// Message flags.
const (
	// FlagIsVoiceMessage marks a message as a voice message.
	FlagIsVoiceMessage = 1 << 13
	// FlagEphemeral marks an interaction response as visible to the invoker only.
	FlagEphemeral = 1 << 6
)

// Gateway intents.
const (
	IntentGuilds         = 1 << 0
	IntentGuildMembers   = 1 << 1
	IntentGuildMessages  = 1 << 9
	IntentDirectMessages = 1 << 12
	IntentMessageContent = 1 << 15
)

// Permission bits.
const (
	// PermissionReadMessageHistory gates threaded replies.
	PermissionReadMessageHistory = 1 << 16
	// PermissionManageChannels is the default gate for the autotranscribe command.
	PermissionManageChannels = 1 << 4
)

// JSON error codes treated as permission-class failures. 160002 is what the
// platform actually returns for a reply without read-message-history; 50001
// and 50013 cover missing access and missing permissions.
const (
	ErrCodeMissingAccess        = 50001
	ErrCodeMissingPermissions   = 50013
	ErrCodeCannotReplyNoHistory = 160002
)

// User is a platform user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID          string  `json:"id"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type,omitempty"`
	URL         string  `json:"url"`
	ProxyURL    string  `json:"proxy_url"`
	DurationSec float64 `json:"duration_secs,omitempty"`
	Waveform    string  `json:"waveform,omitempty"`
}

// Message is an inbound or returned message object.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	GuildID     string       `json:"guild_id,omitempty"`
	Author      User         `json:"author"`
	Content     string       `json:"content"`
	Flags       int          `json:"flags"`
	Attachments []Attachment `json:"attachments"`
}

// IsVoiceMessage reports whether the message carries the voice flag.
func (m *Message) IsVoiceMessage() bool {
	return m.Flags&FlagIsVoiceMessage != 0
}

// AllowedMentions controls which mentions a message may ping.
type AllowedMentions struct {
	Parse       []string `json:"parse"`
	RepliedUser bool     `json:"replied_user"`
}

// MessageReference targets a message for a threaded reply.
type MessageReference struct {
	MessageID       string `json:"message_id"`
	ChannelID       string `json:"channel_id,omitempty"`
	GuildID         string `json:"guild_id,omitempty"`
	FailIfNotExists bool   `json:"fail_if_not_exists"`
}

// FilePayload is a file uploaded alongside a message.
type FilePayload struct {
	Name string
	Data []byte
}

// MessagePayload is the outbound shape for creates and edits.
type MessagePayload struct {
	Content          string            `json:"content,omitempty"`
	Flags            int               `json:"flags,omitempty"`
	AllowedMentions  *AllowedMentions  `json:"allowed_mentions,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
	Attachments      []map[string]any  `json:"attachments,omitempty"`

	// Files are uploaded via multipart and never serialized into the JSON body.
	Files []FilePayload `json:"-"`
}

// Interaction types.
const (
	InteractionTypeApplicationCommand = 2
)

// Application command types.
const (
	CommandTypeChatInput = 1
	CommandTypeMessage   = 3
)

// Command option types.
const (
	OptionTypeSubcommand = 1
)

// CommandOption is an option (or subcommand) of an application command.
type CommandOption struct {
	Type        int             `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Options     []CommandOption `json:"options,omitempty"`
}

// ApplicationCommand is a slash or context-menu command definition.
type ApplicationCommand struct {
	Name                     string          `json:"name"`
	Type                     int             `json:"type"`
	Description              string          `json:"description,omitempty"`
	DefaultMemberPermissions string          `json:"default_member_permissions,omitempty"`
	Contexts                 []int           `json:"contexts,omitempty"`
	IntegrationTypes         []int           `json:"integration_types,omitempty"`
	Options                  []CommandOption `json:"options,omitempty"`
}

// InteractionOption is a received command option value.
type InteractionOption struct {
	Name    string              `json:"name"`
	Type    int                 `json:"type"`
	Options []InteractionOption `json:"options,omitempty"`
}

// ResolvedData carries objects referenced by a command invocation.
type ResolvedData struct {
	Messages map[string]Message `json:"messages,omitempty"`
}

// InteractionData is the command payload of an interaction.
type InteractionData struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Type     int                 `json:"type"`
	TargetID string              `json:"target_id,omitempty"`
	Options  []InteractionOption `json:"options,omitempty"`
	Resolved ResolvedData        `json:"resolved,omitempty"`
}

// Interaction is an inbound command invocation.
type Interaction struct {
	ID             string          `json:"id"`
	Token          string          `json:"token"`
	Type           int             `json:"type"`
	GuildID        string          `json:"guild_id,omitempty"`
	ChannelID      string          `json:"channel_id,omitempty"`
	AppPermissions string          `json:"app_permissions,omitempty"`
	Data           InteractionData `json:"data"`
}

// Interaction callback types.
const (
	ResponseChannelMessage = 4
)

// InteractionResponse is the immediate answer to an interaction.
type InteractionResponse struct {
	Type int             `json:"type"`
	Data *MessagePayload `json:"data,omitempty"`
}

// Application is the current application object.
type Application struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError is a JSON error returned by the platform.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error returns the string representation of the error.
func (e *APIError) Error() string {
	return fmt.Sprintf("discord: %d (code %d): %s", e.Status, e.Code, e.Message)
}

// IsPermissionError reports whether the platform refused the operation for a
// permission-class reason. The code check is a heuristic: the platform
// reports missing reply permission as a numeric JSON code, not a documented
// permission denial.
func (e *APIError) IsPermissionError() bool {
	switch e.Code {
	case ErrCodeMissingAccess, ErrCodeMissingPermissions, ErrCodeCannotReplyNoHistory:
		return true
	}
	return e.Status == 403
}

// MessageLink returns the canonical web link to a message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
