package transcribe

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/scribe/logger"
)

// User-visible command responses.
const (
	enabledText  = ":white_check_mark: Enabled auto transcribe in this channel"
	disabledText = ":white_check_mark: Disabled auto transcribe in this channel"
	badSubText   = ":x: Subcommand must either be `on` or `off`."
	notVoiceText = ":x: This doesn't look like a voice message."
	failedText   = ":x: An error occurred while handling this interaction."

	howToText = "Send a voice message (or right-click any voice message and pick " +
		"**Apps → Transcribe**) and I'll post the transcription. Server managers " +
		"can toggle automatic transcription per channel with `/autotranscribe on` " +
		"or `/autotranscribe off`."
)

// Deps is the explicit collaborator set handed to the orchestrator at
// construction, replacing any global client state.
type Deps struct {
	Store        RecordStore
	Settings     SettingsStore
	Surface      Surface
	Interactions InteractionSurface
	Dispatcher   Dispatcher
	Presenter    *Presenter
	Log          *logger.Logger
}

// Orchestrator coordinates a transcription job's lifecycle:
// detect -> record -> placeholder -> dispatch -> settle -> edit.
// Each job is a terminal state machine: no retries, no re-entry, no
// cancellation.
type Orchestrator struct {
	store        RecordStore
	settings     SettingsStore
	surface      Surface
	interactions InteractionSurface
	dispatcher   Dispatcher
	resolver     *Resolver
	presenter    *Presenter
	log          *logger.Logger
	wg           sync.WaitGroup
}

// New creates an Orchestrator from its collaborators.
func New(deps Deps) *Orchestrator {
	if deps.Presenter == nil {
		deps.Presenter = NewPresenter(0)
	}
	log := deps.Log
	if log == nil {
		log = logger.NewDefault("scribe")
	}
	return &Orchestrator{
		store:        deps.Store,
		settings:     deps.Settings,
		surface:      deps.Surface,
		interactions: deps.Interactions,
		dispatcher:   deps.Dispatcher,
		resolver:     NewResolver(deps.Surface, log),
		presenter:    deps.Presenter,
		log:          log.WithComponent("orchestrator"),
	}
}

// HandleMessageAsync runs HandleMessage in its own goroutine so the
// event source is never blocked on a job's remote future.
func (o *Orchestrator) HandleMessageAsync(ctx context.Context, msg Message) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.contain(msg.ID)
		o.HandleMessage(ctx, msg)
	}()
}

// HandleInteractionAsync runs HandleInteraction in its own goroutine.
func (o *Orchestrator) HandleInteractionAsync(ctx context.Context, i Interaction) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.contain(i.ID)
		o.HandleInteraction(ctx, i)
	}()
}

// Wait blocks until all in-flight jobs have settled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// contain is the top-level containment tier: nothing escaping a per-job
// handler may crash the process or fault the event source.
func (o *Orchestrator) contain(id string) {
	if r := recover(); r != nil {
		o.log.Error("panic in job handler", logger.Fields(
			logger.FieldMessageID, id,
			logger.FieldError, fmt.Sprint(r),
		))
	}
}

// HandleMessage drives the auto-transcribe flow for one inbound message.
// It never returns an error: every failure is contained and, where a
// placeholder exists, surfaced to the user in place.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg Message) {
	url, ok := DetectVoiceURL(msg)
	if !ok {
		return
	}
	// Auto-transcription is only active in guild-scoped channels.
	if msg.GuildID == "" {
		return
	}

	enabled, err := o.settings.Enabled(ctx, msg.GuildID, msg.ChannelID)
	if err != nil {
		// Settings reads failing must not silence the feature.
		o.log.Warn("channel settings unavailable, assuming enabled", logger.ErrorFields("settings", err))
	}
	if !enabled {
		return
	}

	o.log.Info("transcribing", logger.JobFields(msg.ID, msg.ChannelID))

	if err := o.store.Create(ctx, msg.ID, msg.ChannelID, msg.GuildID, url); err != nil {
		// Bookkeeping failures are non-fatal to the job.
		o.log.Warn("job record write failed", logger.ErrorFields("store.create", err))
	}

	target, err := o.resolver.Acquire(ctx, msg)
	if err != nil {
		// No placeholder means no way to surface anything: log and abandon.
		o.log.Error("could not establish placeholder, abandoning job", logger.Fields(
			logger.FieldMessageID, msg.ID,
			logger.FieldChannelID, msg.ChannelID,
			logger.FieldError, err.Error(),
		))
		return
	}

	o.executeJob(ctx, msg.ID, url, target.Prefix, func(ctx context.Context, p DisplayPayload) error {
		return o.surface.Edit(ctx, target.Ref, p)
	})
}

// HandleInteraction routes a command invocation.
func (o *Orchestrator) HandleInteraction(ctx context.Context, i Interaction) {
	switch i.Command {
	case "autotranscribe":
		o.handleAutoToggle(ctx, i)
	case "howto":
		o.respond(ctx, i, howToText, false)
	case "Transcribe":
		o.handleContextTranscribe(ctx, i)
	default:
		o.log.Warn("unhandled interaction", logger.Fields("command", i.Command))
		o.respond(ctx, i, failedText, true)
	}
}

// handleAutoToggle flips the per-channel auto-transcribe setting.
func (o *Orchestrator) handleAutoToggle(ctx context.Context, i Interaction) {
	var enabled bool
	switch i.Subcommand {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		o.respond(ctx, i, badSubText, true)
		return
	}

	if err := o.settings.SetEnabled(ctx, i.GuildID, i.ChannelID, enabled); err != nil {
		o.log.Error("settings write failed", logger.ErrorFields("settings", err))
		o.respond(ctx, i, failedText, true)
		return
	}
	if enabled {
		o.respond(ctx, i, enabledText, false)
	} else {
		o.respond(ctx, i, disabledText, false)
	}
}

// handleContextTranscribe runs the pipeline against an arbitrary target
// message. The ephemeral interaction response doubles as the
// placeholder, so no fallback or back-link logic applies here.
func (o *Orchestrator) handleContextTranscribe(ctx context.Context, i Interaction) {
	if i.Target == nil {
		o.respond(ctx, i, notVoiceText, true)
		return
	}
	url, ok := DetectVoiceURL(*i.Target)
	if !ok {
		o.respond(ctx, i, notVoiceText, true)
		return
	}

	o.log.Info("transcribing (context menu)", logger.JobFields(i.Target.ID, i.Target.ChannelID))

	if err := o.interactions.Respond(ctx, i, placeholderText, true); err != nil {
		o.log.Error("could not establish placeholder, abandoning job", logger.ErrorFields("interaction.respond", err))
		return
	}

	if err := o.store.Create(ctx, i.Target.ID, i.Target.ChannelID, i.Target.GuildID, url); err != nil {
		o.log.Warn("job record write failed", logger.ErrorFields("store.create", err))
	}

	o.executeJob(ctx, i.Target.ID, url, "", func(ctx context.Context, p DisplayPayload) error {
		return o.interactions.EditResponse(ctx, i, p)
	})
}

// executeJob runs dispatch and settlement for an acquired placeholder.
// Store updates always precede the visible edit.
type editFunc = func(ctx context.Context, p DisplayPayload) error

func (o *Orchestrator) executeJob(ctx context.Context, messageID, url, prefix string, edit editFunc) {
	fut, err := o.dispatcher.Submit(ctx, url)
	if err != nil {
		// Dispatch-time failure: the task never reached the broker.
		o.markState(ctx, messageID, StateDispatchError)
		o.edit(ctx, messageID, edit, o.presenter.RenderDispatchError(err.Error(), prefix))
		return
	}
	o.markState(ctx, messageID, StateDispatched)

	result, err := fut.Wait(ctx)
	if err != nil {
		o.log.Warn("transcription failed", logger.Fields(
			logger.FieldMessageID, messageID,
			logger.FieldError, err.Error(),
		))
		o.markState(ctx, messageID, StateError)
		o.edit(ctx, messageID, edit, o.presenter.RenderError(err.Error(), prefix))
		return
	}

	o.log.Info("finished transcription", logger.Fields(logger.FieldMessageID, messageID))
	if err := o.store.MarkDone(ctx, messageID, result); err != nil {
		o.log.Warn("job record write failed", logger.ErrorFields("store.done", err))
	}
	o.edit(ctx, messageID, edit, o.presenter.RenderResult(result, prefix))
}

// markState records a state transition, logging bookkeeping failures
// without letting them block the reply path.
func (o *Orchestrator) markState(ctx context.Context, messageID string, state State) {
	var err error
	if state == StateDispatched {
		err = o.store.MarkDispatched(ctx, messageID)
	} else {
		err = o.store.MarkError(ctx, messageID, state)
	}
	if err != nil {
		o.log.Warn("job record write failed", logger.Fields(
			logger.FieldMessageID, messageID,
			logger.FieldJobState, string(state),
			logger.FieldError, err.Error(),
		))
	}
}

// edit applies the final placeholder edit; there is nothing left to fall
// back to if it fails, so log and stop.
func (o *Orchestrator) edit(ctx context.Context, messageID string, edit editFunc, p DisplayPayload) {
	if err := edit(ctx, p); err != nil {
		o.log.Error("placeholder edit failed", logger.Fields(
			logger.FieldMessageID, messageID,
			logger.FieldError, err.Error(),
		))
	}
}

// respond answers an interaction, containing failures.
func (o *Orchestrator) respond(ctx context.Context, i Interaction, content string, ephemeral bool) {
	if err := o.interactions.Respond(ctx, i, content, ephemeral); err != nil {
		o.log.Error("interaction response failed", logger.ErrorFields("interaction.respond", err))
	}
}
