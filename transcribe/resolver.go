package transcribe

import (
	"context"

	scriberrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

// placeholderText is the provisional content later edited in place with
// the final result.
const placeholderText = ":writing_hand: Transcribing..."

// ReplyTarget is an acquired placeholder message. Prefix is non-empty
// when the fallback channel post was used; every later edit must carry it.
type ReplyTarget struct {
	Ref    MessageRef
	Prefix string
}

// Resolver acquires a placeholder with the least-surprising reply
// strategy under uncertain permission state: try a threaded reply first,
// fall back to a plain channel post with a back-link when the platform
// rejects it for a permission-class reason. An introspection pre-check
// is only a fast path; the try-then-fallback policy is what's trusted.
type Resolver struct {
	surface Surface
	log     *logger.Logger
}

// NewResolver creates a Resolver.
func NewResolver(surface Surface, log *logger.Logger) *Resolver {
	return &Resolver{
		surface: surface,
		log:     log.WithComponent("resolver"),
	}
}

// Acquire obtains the placeholder for a job. Both strategies failing is
// fatal to the job: the returned error wraps the last failure.
func (r *Resolver) Acquire(ctx context.Context, msg Message) (*ReplyTarget, error) {
	if r.surface.CanReply(ctx, msg) != PermissionDenied {
		ref, err := r.surface.Reply(ctx, msg.ChannelID, msg.ID, placeholderText)
		if err == nil {
			return &ReplyTarget{Ref: ref}, nil
		}
		if !scriberrors.HasCode(err, scriberrors.ErrCodePermissionDenied) {
			return nil, scriberrors.ReplyFailed(err)
		}
		r.log.Warn("threaded reply rejected, falling back to channel post", logger.Fields(
			logger.FieldMessageID, msg.ID,
			logger.FieldChannelID, msg.ChannelID,
			logger.FieldError, err.Error(),
		))
	}

	link := r.surface.MessageLink(msg.GuildID, msg.ChannelID, msg.ID)
	ref, err := r.surface.Send(ctx, msg.ChannelID, link+" "+placeholderText)
	if err != nil {
		return nil, scriberrors.ReplyFailed(err)
	}
	return &ReplyTarget{Ref: ref, Prefix: link + "\n"}, nil
}
