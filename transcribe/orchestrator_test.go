package transcribe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	scriberrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

// eventLog is a shared ordered record of side effects across fakes, used
// to assert that store writes precede the corresponding visible edits.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeStore records state transitions per message id.
type fakeStore struct {
	mu        sync.Mutex
	states    map[string][]State
	results   map[string]string
	createErr error
	events    *eventLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string][]State), results: make(map[string]string)}
}

func (f *fakeStore) record(event string) {
	if f.events != nil {
		f.events.add(event)
	}
}

func (f *fakeStore) Create(_ context.Context, messageID, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.states[messageID] = append(f.states[messageID], StatePending)
	f.record("store:pending")
	return nil
}

func (f *fakeStore) MarkDispatched(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[messageID] = append(f.states[messageID], StateDispatched)
	f.record("store:dispatched")
	return nil
}

func (f *fakeStore) MarkDone(_ context.Context, messageID, result string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[messageID] = append(f.states[messageID], StateDone)
	f.results[messageID] = result
	f.record("store:done")
	return nil
}

func (f *fakeStore) MarkError(_ context.Context, messageID string, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[messageID] = append(f.states[messageID], state)
	f.record("store:" + string(state))
	return nil
}

func (f *fakeStore) statesFor(messageID string) []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]State(nil), f.states[messageID]...)
}

var _ RecordStore = (*fakeStore)(nil)

// fakeSettings is an in-memory SettingsStore with a forced read error.
type fakeSettings struct {
	mu       sync.Mutex
	disabled map[string]bool
	readErr  error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{disabled: make(map[string]bool)}
}

func (f *fakeSettings) Enabled(_ context.Context, guildID, channelID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return true, f.readErr
	}
	return !f.disabled[guildID+"/"+channelID], nil
}

func (f *fakeSettings) SetEnabled(_ context.Context, guildID, channelID string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled[guildID+"/"+channelID] = !enabled
	return nil
}

var _ SettingsStore = (*fakeSettings)(nil)

// fakeFuture settles with a fixed result once release (if set) is closed.
type fakeFuture struct {
	result  string
	err     error
	release chan struct{}
}

func (f *fakeFuture) Wait(ctx context.Context) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.result, f.err
}

// fakeDispatcher hands out queued futures in submission order.
type fakeDispatcher struct {
	mu        sync.Mutex
	futures   []*fakeFuture
	submitted []string
	submitErr error
}

func (f *fakeDispatcher) Submit(_ context.Context, url string) (Future, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, url)
	if len(f.futures) == 0 {
		return &fakeFuture{result: "hello world"}, nil
	}
	fut := f.futures[0]
	f.futures = f.futures[1:]
	return fut, nil
}

var _ Dispatcher = (*fakeDispatcher)(nil)

// fakeInteractions records interaction responses and edits.
type fakeInteractions struct {
	mu         sync.Mutex
	responses  []string
	ephemerals []bool
	edits      []DisplayPayload
	respondErr error
}

func (f *fakeInteractions) Respond(_ context.Context, _ Interaction, content string, ephemeral bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.respondErr != nil {
		return f.respondErr
	}
	f.responses = append(f.responses, content)
	f.ephemerals = append(f.ephemerals, ephemeral)
	return nil
}

func (f *fakeInteractions) EditResponse(_ context.Context, _ Interaction, payload DisplayPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, payload)
	return nil
}

var _ InteractionSurface = (*fakeInteractions)(nil)

type testHarness struct {
	store        *fakeStore
	settings     *fakeSettings
	surface      *fakeSurface
	interactions *fakeInteractions
	dispatcher   *fakeDispatcher
	events       *eventLog
	orch         *Orchestrator
}

func newHarness() *testHarness {
	h := &testHarness{
		store:        newFakeStore(),
		settings:     newFakeSettings(),
		surface:      newFakeSurface(),
		interactions: &fakeInteractions{},
		dispatcher:   &fakeDispatcher{},
		events:       &eventLog{},
	}
	h.store.events = h.events
	h.surface.events = h.events
	h.orch = New(Deps{
		Store:        h.store,
		Settings:     h.settings,
		Surface:      h.surface,
		Interactions: h.interactions,
		Dispatcher:   h.dispatcher,
		Presenter:    NewPresenter(0),
		Log:          logger.NewDefault("test"),
	})
	return h
}

func (h *testHarness) onlyEdit(t *testing.T) DisplayPayload {
	t.Helper()
	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	var all []DisplayPayload
	for _, edits := range h.surface.edits {
		all = append(all, edits...)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one edit, got %d", len(all))
	}
	return all[0]
}

func TestOrchestrator_SuccessfulJob(t *testing.T) {
	h := newHarness()
	h.orch.HandleMessage(context.Background(), testMessage())

	states := h.store.statesFor("msg1")
	want := []State{StatePending, StateDispatched, StateDone}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}

	if len(h.dispatcher.submitted) != 1 || h.dispatcher.submitted[0] != "https://cdn.example/vm.ogg" {
		t.Fatalf("unexpected submissions: %v", h.dispatcher.submitted)
	}

	edit := h.onlyEdit(t)
	if edit.Content != "```\nhello world\n```\n" {
		t.Fatalf("unexpected final content: %q", edit.Content)
	}
	if h.store.results["msg1"] != "hello world" {
		t.Fatalf("result not recorded: %q", h.store.results["msg1"])
	}
}

// Store updates must precede the visible edit so a crash between the two
// never shows a result the record does not reflect.
func TestOrchestrator_StoreWriteBeforeEdit(t *testing.T) {
	h := newHarness()
	h.orch.HandleMessage(context.Background(), testMessage())

	events := h.events.list()
	doneAt, editAt := -1, -1
	for i, e := range events {
		switch e {
		case "store:done":
			doneAt = i
		case "edit":
			editAt = i
		}
	}
	if doneAt == -1 || editAt == -1 {
		t.Fatalf("missing events in %v", events)
	}
	if doneAt > editAt {
		t.Fatalf("store write must precede the edit: %v", events)
	}
}

func TestOrchestrator_PermissionFallbackPrefixesEdits(t *testing.T) {
	h := newHarness()
	h.surface.replyErr = scriberrors.PermissionDenied("reply", fmt.Errorf("missing access"))
	h.orch.HandleMessage(context.Background(), testMessage())

	edit := h.onlyEdit(t)
	link := "https://discord.com/channels/guild1/chan1/msg1"
	if !strings.HasPrefix(edit.Content, link+"\n") {
		t.Fatalf("fallback edit must lead with the back-link, got %q", edit.Content)
	}
	if !strings.Contains(edit.Content, "hello world") {
		t.Fatalf("edit lost the transcription: %q", edit.Content)
	}
}

func TestOrchestrator_WorkerFailure(t *testing.T) {
	h := newHarness()
	h.dispatcher.futures = []*fakeFuture{{err: scriberrors.WorkerFailed("timeout")}}
	h.orch.HandleMessage(context.Background(), testMessage())

	states := h.store.statesFor("msg1")
	if len(states) == 0 || states[len(states)-1] != StateError {
		t.Fatalf("states = %v, want terminal error", states)
	}

	edit := h.onlyEdit(t)
	if edit.Content != ":warning: Error transcribing: `timeout`" {
		t.Fatalf("worker message must surface verbatim, got %q", edit.Content)
	}
}

func TestOrchestrator_DispatchFailure(t *testing.T) {
	h := newHarness()
	h.dispatcher.submitErr = fmt.Errorf("broker unreachable")
	h.orch.HandleMessage(context.Background(), testMessage())

	states := h.store.statesFor("msg1")
	if len(states) == 0 || states[len(states)-1] != StateDispatchError {
		t.Fatalf("states = %v, want terminal dispatch_error", states)
	}

	edit := h.onlyEdit(t)
	if !strings.Contains(edit.Content, "Error submitting transcription") {
		t.Fatalf("unexpected content: %q", edit.Content)
	}
}

func TestOrchestrator_NoPlaceholderAbandonsJob(t *testing.T) {
	h := newHarness()
	h.surface.replyErr = fmt.Errorf("connection reset")
	h.orch.HandleMessage(context.Background(), testMessage())

	if len(h.dispatcher.submitted) != 0 {
		t.Fatal("a job without a placeholder must not dispatch")
	}
}

func TestOrchestrator_SettingsDisabledSkips(t *testing.T) {
	h := newHarness()
	if err := h.settings.SetEnabled(context.Background(), "guild1", "chan1", false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	h.orch.HandleMessage(context.Background(), testMessage())

	if len(h.surface.replies) != 0 || len(h.dispatcher.submitted) != 0 {
		t.Fatal("disabled channel must produce no side effects")
	}
}

func TestOrchestrator_SettingsErrorFailsOpen(t *testing.T) {
	h := newHarness()
	h.settings.readErr = fmt.Errorf("store down")
	h.orch.HandleMessage(context.Background(), testMessage())

	if len(h.dispatcher.submitted) != 1 {
		t.Fatal("a settings read failure must not silence the feature")
	}
}

func TestOrchestrator_StoreFailureIsNonFatal(t *testing.T) {
	h := newHarness()
	h.store.createErr = fmt.Errorf("store down")
	h.orch.HandleMessage(context.Background(), testMessage())

	if len(h.dispatcher.submitted) != 1 {
		t.Fatal("bookkeeping failure must not abort the job")
	}
	if edit := h.onlyEdit(t); !strings.Contains(edit.Content, "hello world") {
		t.Fatalf("unexpected content: %q", edit.Content)
	}
}

func TestOrchestrator_SkipsDirectMessages(t *testing.T) {
	h := newHarness()
	msg := testMessage()
	msg.GuildID = ""
	h.orch.HandleMessage(context.Background(), msg)

	if len(h.surface.replies) != 0 || len(h.dispatcher.submitted) != 0 {
		t.Fatal("direct messages must be skipped")
	}
}

func TestOrchestrator_SkipsNonVoiceMessages(t *testing.T) {
	h := newHarness()
	h.orch.HandleMessage(context.Background(), Message{
		ID: "msg1", ChannelID: "chan1", GuildID: "guild1",
		Attachments: []Attachment{{Filename: "notes.txt", URL: "https://cdn.example/n.txt"}},
	})

	if len(h.surface.replies) != 0 {
		t.Fatal("non-voice messages must produce no side effects")
	}
}

// Two concurrent jobs settle independently: the second finishing first
// must not touch the first job's placeholder.
func TestOrchestrator_ConcurrentJobsAreIndependent(t *testing.T) {
	h := newHarness()
	releaseA := make(chan struct{})
	h.dispatcher.futures = []*fakeFuture{
		{result: "first", release: releaseA},
		{result: "second"},
	}

	msgA := testMessage()
	msgB := testMessage()
	msgB.ID = "msg2"
	msgB.Attachments = []Attachment{{Filename: "voice-message.ogg", URL: "https://cdn.example/vm2.ogg"}}

	ctx := context.Background()
	h.orch.HandleMessageAsync(ctx, msgA)
	h.orch.HandleMessageAsync(ctx, msgB)
	close(releaseA)
	h.orch.Wait()

	if h.store.results["msg1"] != "first" || h.store.results["msg2"] != "second" {
		t.Fatalf("results crossed jobs: %v", h.store.results)
	}

	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	for ref, edits := range h.surface.edits {
		if len(edits) != 1 {
			t.Fatalf("placeholder %s edited %d times", ref, len(edits))
		}
		want := "first"
		if strings.Contains(ref, "msg2") {
			want = "second"
		}
		if !strings.Contains(edits[0].Content, want) {
			t.Fatalf("placeholder %s got %q", ref, edits[0].Content)
		}
	}
}

func TestOrchestrator_PanicIsContained(t *testing.T) {
	h := newHarness()
	h.settings.readErr = nil
	h.surface.replyErr = nil

	// A nil dispatcher future would panic inside the handler goroutine;
	// simulate with a panicking dispatcher instead.
	h.orch.dispatcher = panicDispatcher{}
	h.orch.HandleMessageAsync(context.Background(), testMessage())
	h.orch.Wait()
	// Reaching this point without a crash is the assertion.
}

type panicDispatcher struct{}

func (panicDispatcher) Submit(context.Context, string) (Future, error) {
	panic("dispatcher exploded")
}

func TestOrchestrator_AutoToggleCommand(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	h.orch.HandleInteraction(ctx, Interaction{
		ID: "i1", GuildID: "guild1", ChannelID: "chan1",
		Command: "autotranscribe", Subcommand: "off",
	})
	if enabled, _ := h.settings.Enabled(ctx, "guild1", "chan1"); enabled {
		t.Fatal("off subcommand must disable the channel")
	}

	h.orch.HandleInteraction(ctx, Interaction{
		ID: "i2", GuildID: "guild1", ChannelID: "chan1",
		Command: "autotranscribe", Subcommand: "on",
	})
	if enabled, _ := h.settings.Enabled(ctx, "guild1", "chan1"); !enabled {
		t.Fatal("on subcommand must re-enable the channel")
	}

	if len(h.interactions.responses) != 2 {
		t.Fatalf("expected two responses, got %v", h.interactions.responses)
	}
}

func TestOrchestrator_AutoToggleBadSubcommand(t *testing.T) {
	h := newHarness()
	h.orch.HandleInteraction(context.Background(), Interaction{
		ID: "i1", GuildID: "guild1", ChannelID: "chan1",
		Command: "autotranscribe", Subcommand: "sideways",
	})

	if len(h.interactions.responses) != 1 || !h.interactions.ephemerals[0] {
		t.Fatalf("bad subcommand must get an ephemeral rejection, got %v", h.interactions.responses)
	}
}

func TestOrchestrator_ContextMenuTranscribe(t *testing.T) {
	h := newHarness()
	target := testMessage()
	h.orch.HandleInteraction(context.Background(), Interaction{
		ID: "i1", Token: "tok", GuildID: "guild1", ChannelID: "chan1",
		Command: "Transcribe", Target: &target,
	})

	if len(h.interactions.responses) != 1 || h.interactions.responses[0] != ":writing_hand: Transcribing..." {
		t.Fatalf("unexpected placeholder response: %v", h.interactions.responses)
	}
	if !h.interactions.ephemerals[0] {
		t.Fatal("context-menu placeholder must be ephemeral")
	}
	if len(h.interactions.edits) != 1 || h.interactions.edits[0].Content != "```\nhello world\n```\n" {
		t.Fatalf("unexpected final edit: %v", h.interactions.edits)
	}
	if len(h.surface.replies) != 0 || len(h.surface.sends) != 0 {
		t.Fatal("context-menu path must not post channel messages")
	}
	states := h.store.statesFor("msg1")
	if len(states) == 0 || states[len(states)-1] != StateDone {
		t.Fatalf("states = %v, want terminal done", states)
	}
}

func TestOrchestrator_ContextMenuNonVoiceTarget(t *testing.T) {
	h := newHarness()
	target := Message{ID: "msg1", ChannelID: "chan1", GuildID: "guild1",
		Attachments: []Attachment{{Filename: "notes.txt", URL: "https://cdn.example/n.txt"}}}
	h.orch.HandleInteraction(context.Background(), Interaction{
		ID: "i1", Command: "Transcribe", Target: &target,
	})

	if len(h.dispatcher.submitted) != 0 {
		t.Fatal("non-voice target must not dispatch")
	}
	if len(h.interactions.responses) != 1 || !h.interactions.ephemerals[0] {
		t.Fatalf("expected one ephemeral rejection, got %v", h.interactions.responses)
	}
}
