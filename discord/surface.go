package discord

import (
	"context"
	"errors"
	"sync"

	scriberrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/transcribe"
)

// Surface adapts the REST client to the orchestrator's platform
// interfaces, mapping Discord wire shapes to the neutral types and
// permission-class API errors to the shared error code.
type Surface struct {
	rest *RestClient

	// mu guards applicationID: READY sets it from the gateway goroutine
	// (again on every reconnect) while interaction jobs read it.
	mu            sync.RWMutex
	applicationID string
}

// NewSurface creates a Surface. The application id is needed for
// interaction response edits.
func NewSurface(rest *RestClient, applicationID string) *Surface {
	return &Surface{rest: rest, applicationID: applicationID}
}

// SetApplicationID fills in the application id once READY reveals it.
func (s *Surface) SetApplicationID(id string) {
	s.mu.Lock()
	s.applicationID = id
	s.mu.Unlock()
}

func (s *Surface) appID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applicationID
}

// Reply posts a threaded reply with the author ping suppressed,
// requiring the target to still exist.
func (s *Surface) Reply(ctx context.Context, channelID, messageID, content string) (transcribe.MessageRef, error) {
	msg, err := s.rest.CreateMessage(ctx, channelID, MessagePayload{
		Content: content,
		MessageReference: &MessageReference{
			MessageID:       messageID,
			FailIfNotExists: true,
		},
		AllowedMentions: &AllowedMentions{RepliedUser: false},
	})
	if err != nil {
		return transcribe.MessageRef{}, mapError("reply", err)
	}
	return transcribe.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// Send posts a plain channel message.
func (s *Surface) Send(ctx context.Context, channelID, content string) (transcribe.MessageRef, error) {
	msg, err := s.rest.CreateMessage(ctx, channelID, MessagePayload{Content: content})
	if err != nil {
		return transcribe.MessageRef{}, mapError("send", err)
	}
	return transcribe.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// Edit replaces a message's content, keeping the author ping suppressed.
func (s *Surface) Edit(ctx context.Context, ref transcribe.MessageRef, p transcribe.DisplayPayload) error {
	if _, err := s.rest.EditMessage(ctx, ref.ChannelID, ref.MessageID, toMessagePayload(p)); err != nil {
		return mapError("edit", err)
	}
	return nil
}

// MessageLink returns the canonical web link to a message.
func (s *Surface) MessageLink(guildID, channelID, messageID string) string {
	return MessageLink(guildID, channelID, messageID)
}

// CanReply is the permission pre-check fast path. Without a member and
// channel-overwrite cache there is no trustworthy introspection here,
// so the answer is always unknown and the try-then-fallback policy
// governs.
func (s *Surface) CanReply(ctx context.Context, msg transcribe.Message) transcribe.PermissionCheck {
	return transcribe.PermissionUnknown
}

// Respond sends the immediate answer to an interaction.
func (s *Surface) Respond(ctx context.Context, i transcribe.Interaction, content string, ephemeral bool) error {
	payload := &MessagePayload{Content: content}
	if ephemeral {
		payload.Flags = FlagEphemeral
	}
	err := s.rest.CreateInteractionResponse(ctx, i.ID, i.Token, InteractionResponse{
		Type: ResponseChannelMessage,
		Data: payload,
	})
	if err != nil {
		return mapError("interaction response", err)
	}
	return nil
}

// EditResponse edits the original interaction response.
func (s *Surface) EditResponse(ctx context.Context, i transcribe.Interaction, p transcribe.DisplayPayload) error {
	if _, err := s.rest.EditOriginalResponse(ctx, s.appID(), i.Token, toMessagePayload(p)); err != nil {
		return mapError("interaction edit", err)
	}
	return nil
}

// toMessagePayload converts a rendered display payload to the wire shape.
func toMessagePayload(p transcribe.DisplayPayload) MessagePayload {
	payload := MessagePayload{
		Content:         p.Content,
		AllowedMentions: &AllowedMentions{RepliedUser: false},
	}
	if p.File != nil {
		payload.Files = []FilePayload{{Name: p.File.Name, Data: p.File.Data}}
	}
	return payload
}

// mapError wraps permission-class API errors in the shared code so the
// resolver's fallback branch can recognize them without duck typing.
func mapError(operation string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsPermissionError() {
		return scriberrors.PermissionDenied(operation, err)
	}
	return err
}

// ToMessage converts an inbound gateway message to the neutral type.
func ToMessage(m Message) transcribe.Message {
	out := transcribe.Message{
		ID:           m.ID,
		ChannelID:    m.ChannelID,
		GuildID:      m.GuildID,
		VoiceFlagged: m.IsVoiceMessage(),
	}
	for _, a := range m.Attachments {
		url := a.ProxyURL
		if url == "" {
			url = a.URL
		}
		out.Attachments = append(out.Attachments, transcribe.Attachment{
			Filename: a.Filename,
			URL:      url,
		})
	}
	return out
}

// ToInteraction converts an inbound interaction, resolving the target
// message for context-menu invocations and the subcommand for slash
// commands.
func ToInteraction(i Interaction) transcribe.Interaction {
	out := transcribe.Interaction{
		ID:        i.ID,
		Token:     i.Token,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Command:   i.Data.Name,
	}
	for _, opt := range i.Data.Options {
		if opt.Type == OptionTypeSubcommand {
			out.Subcommand = opt.Name
			break
		}
	}
	if i.Data.Type == CommandTypeMessage && i.Data.TargetID != "" {
		if resolved, ok := i.Data.Resolved.Messages[i.Data.TargetID]; ok {
			msg := ToMessage(resolved)
			if msg.GuildID == "" {
				msg.GuildID = i.GuildID
			}
			if msg.ChannelID == "" {
				msg.ChannelID = i.ChannelID
			}
			out.Target = &msg
		}
	}
	return out
}

var (
	_ transcribe.Surface            = (*Surface)(nil)
	_ transcribe.InteractionSurface = (*Surface)(nil)
)
