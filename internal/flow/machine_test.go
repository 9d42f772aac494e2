package flow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/leadbot/internal/i18n"
)

type promptCall struct {
	sessionID int64
	text      string
	kb        *Keyboard
}

type fakePrompter struct {
	calls []promptCall
	err   error
}

func (p *fakePrompter) Prompt(_ context.Context, sessionID int64, text string, kb *Keyboard) error {
	p.calls = append(p.calls, promptCall{sessionID: sessionID, text: text, kb: kb})
	return p.err
}

func (p *fakePrompter) last(t *testing.T) promptCall {
	t.Helper()
	if len(p.calls) == 0 {
		t.Fatal("no prompt emitted")
	}
	return p.calls[len(p.calls)-1]
}

type fakeSink struct {
	leads []Lead
	err   error
}

func (s *fakeSink) Completed(_ context.Context, lead Lead) error {
	s.leads = append(s.leads, lead)
	return s.err
}

func newTestMachine(t *testing.T) (*Machine, Store, *fakePrompter, *fakeSink) {
	t.Helper()
	store := NewMemoryStore(0)
	prompter := &fakePrompter{}
	sink := &fakeSink{}
	texts := i18n.NewTable("ru")
	return NewMachine(store, texts, prompter, sink), store, prompter, sink
}

const userID int64 = 42

func meta() Meta { return Meta{From: userID, Username: "ivan"} }

func TestFullConversation(t *testing.T) {
	m, store, prompter, sink := newTestMachine(t)
	ctx := context.Background()

	events := []Event{
		ResetEvent{Meta: meta()},
		ButtonEvent{Meta: meta(), Payload: "en"},
		TextEvent{Meta: meta(), Text: "  John Doe  "},
		ButtonEvent{Meta: meta(), Payload: MethodTelegram},
		TextEvent{Meta: meta(), Text: "+1 (415) 555-0132"},
		TextEvent{Meta: meta(), Text: "please call after 6pm"},
	}
	for i, ev := range events {
		if err := m.Handle(ctx, ev); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}

	// Exactly one prompt per accepted event.
	if len(prompter.calls) != len(events) {
		t.Fatalf("prompts = %d, want %d", len(prompter.calls), len(events))
	}

	if len(sink.leads) != 1 {
		t.Fatalf("completed leads = %d, want 1", len(sink.leads))
	}
	lead := sink.leads[0]
	if lead.SessionID != userID || lead.Username != "ivan" {
		t.Errorf("lead identity = %d/%q", lead.SessionID, lead.Username)
	}
	if lead.Language != "en" {
		t.Errorf("lead.Language = %q, want en", lead.Language)
	}
	if lead.Name != "John Doe" {
		t.Errorf("lead.Name = %q, want trimmed name", lead.Name)
	}
	if lead.Method != MethodTelegram {
		t.Errorf("lead.Method = %q", lead.Method)
	}
	if lead.Phone != "+14155550132" {
		t.Errorf("lead.Phone = %q", lead.Phone)
	}
	if lead.Note != "please call after 6pm" {
		t.Errorf("lead.Note = %q", lead.Note)
	}

	if _, ok := store.Get(userID); ok {
		t.Error("session not deleted after completion")
	}
}

func TestFirstContactIsImplicitReset(t *testing.T) {
	m, store, prompter, _ := newTestMachine(t)

	if err := m.Handle(context.Background(), TextEvent{Meta: meta(), Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	sess, ok := store.Get(userID)
	if !ok {
		t.Fatal("session not created")
	}
	if sess.Step != StepLanguage {
		t.Fatalf("step = %q, want %q", sess.Step, StepLanguage)
	}
	call := prompter.last(t)
	if call.kb == nil || len(call.kb.Inline) == 0 {
		t.Error("language prompt is missing the inline keyboard")
	}
}

func TestTextAtLanguageSelectsDefault(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "здравствуйте"})

	sess, _ := store.Get(userID)
	if sess.Language != "ru" {
		t.Errorf("language = %q, want default ru", sess.Language)
	}
	if sess.Step != StepName {
		t.Errorf("step = %q, want %q", sess.Step, StepName)
	}
}

func TestEmptyNameRejected(t *testing.T) {
	m, store, prompter, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "   "})

	sess, _ := store.Get(userID)
	if sess.Step != StepName {
		t.Fatalf("step = %q, want %q after rejected name", sess.Step, StepName)
	}
	if sess.Name != "" {
		t.Errorf("name = %q, want unset", sess.Name)
	}
	want := i18n.NewTable("ru").Resolve("ru", i18n.KeyAskName)
	if got := prompter.last(t).text; got != want {
		t.Errorf("re-prompt = %q, want name prompt", got)
	}
}

func TestInvalidPhoneKeepsStateAndFields(t *testing.T) {
	m, store, prompter, sink := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Мария"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "звонок"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "not a phone"})

	sess, _ := store.Get(userID)
	if sess.Step != StepPhone {
		t.Fatalf("step = %q, want %q", sess.Step, StepPhone)
	}
	if sess.Name != "Мария" || sess.Method != MethodCall {
		t.Errorf("accepted fields lost: name=%q method=%q", sess.Name, sess.Method)
	}
	if sess.Phone != "" {
		t.Errorf("phone = %q, want unset after rejection", sess.Phone)
	}
	want := i18n.NewTable("ru").Resolve("ru", i18n.KeyPhoneInvalid)
	if got := prompter.last(t).text; got != want {
		t.Errorf("re-prompt = %q, want invalid-phone prompt", got)
	}
	if len(sink.leads) != 0 {
		t.Error("lead completed despite rejected phone")
	}
}

func TestContactShareNormalized(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Иван"})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: MethodWhatsApp})
	mustHandle(t, m, ContactEvent{Meta: meta(), PhoneNumber: "89991234567"})

	sess, _ := store.Get(userID)
	if sess.Phone != "+79991234567" {
		t.Errorf("phone = %q, want +79991234567", sess.Phone)
	}
	if sess.Step != StepNote {
		t.Errorf("step = %q, want %q", sess.Step, StepNote)
	}
}

func TestShapeMismatchIgnored(t *testing.T) {
	m, store, prompter, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	prompts := len(prompter.calls)

	// Button press while a name is expected: no prompt, no transition.
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "whatever"})
	if len(prompter.calls) != prompts {
		t.Error("mismatched shape emitted a prompt")
	}
	sess, _ := store.Get(userID)
	if sess.Step != StepName {
		t.Errorf("step = %q, want %q", sess.Step, StepName)
	}

	// Contact share while a method is expected is ignored too.
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Петр"})
	prompts = len(prompter.calls)
	mustHandle(t, m, ContactEvent{Meta: meta(), PhoneNumber: "+79991234567"})
	if len(prompter.calls) != prompts {
		t.Error("contact at method step emitted a prompt")
	}
	sess, _ = store.Get(userID)
	if sess.Step != StepMethod {
		t.Errorf("step = %q, want %q", sess.Step, StepMethod)
	}
}

func TestUnknownButtonPayloadFallsBackToDefaultMethod(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Анна"})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "stale-token"})

	sess, _ := store.Get(userID)
	if sess.Method != DefaultMethod {
		t.Errorf("method = %q, want default %q", sess.Method, DefaultMethod)
	}
	if sess.Step != StepPhone {
		t.Errorf("step = %q, want %q", sess.Step, StepPhone)
	}
}

func TestSkipTokenNote(t *testing.T) {
	m, _, _, sink := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Иван"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "телеграм"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "+79991234567"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "не нужно"})

	if len(sink.leads) != 1 {
		t.Fatalf("completed leads = %d, want 1", len(sink.leads))
	}
	if sink.leads[0].Note != EmptyNote {
		t.Errorf("note = %q, want %q", sink.leads[0].Note, EmptyNote)
	}
	if sink.leads[0].Method != MethodTelegram {
		t.Errorf("method = %q, want telegram from keyword match", sink.leads[0].Method)
	}
}

func TestResetMidConversation(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "en"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "John"})
	mustHandle(t, m, ResetEvent{Meta: meta()})

	sess, ok := store.Get(userID)
	if !ok {
		t.Fatal("session missing after reset")
	}
	if sess.Step != StepLanguage {
		t.Errorf("step = %q, want %q", sess.Step, StepLanguage)
	}
	if sess.Name != "" || sess.Language != "" || sess.Phone != "" || sess.Note != "" {
		t.Errorf("reset kept stale fields: %+v", sess)
	}
}

func TestSinkFailureStillConfirms(t *testing.T) {
	m, store, prompter, sink := newTestMachine(t)
	sink.err = errors.New("downstream unavailable")

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Иван"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "звонок"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "+79991234567"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "-"})

	want := i18n.NewTable("ru").Resolve("ru", i18n.KeyDone)
	if got := prompter.last(t).text; got != want {
		t.Errorf("confirmation = %q, want success text despite sink failure", got)
	}
	if _, ok := store.Get(userID); ok {
		t.Error("session survived completion")
	}
}

func TestEventAfterCompletionStartsOver(t *testing.T) {
	m, store, _, _ := newTestMachine(t)

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "Иван"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "звонок"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "+79991234567"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "-"})

	mustHandle(t, m, TextEvent{Meta: meta(), Text: "hello again"})
	sess, ok := store.Get(userID)
	if !ok || sess.Step != StepLanguage {
		t.Fatalf("post-completion event did not restart: ok=%v sess=%+v", ok, sess)
	}
}

func TestPromptFailureKeepsSessionConsistent(t *testing.T) {
	m, store, prompter, sink := newTestMachine(t)
	ctx := context.Background()

	mustHandle(t, m, ResetEvent{Meta: meta()})
	mustHandle(t, m, ButtonEvent{Meta: meta(), Payload: "ru"})

	// Send failure after the mutation: the error surfaces, the step and the
	// accepted field stay.
	prompter.err = errors.New("telegram unavailable")
	if err := m.Handle(ctx, TextEvent{Meta: meta(), Text: "Иван"}); err == nil {
		t.Fatal("prompt failure not surfaced")
	}
	sess, ok := store.Get(userID)
	if !ok {
		t.Fatal("session lost on prompt failure")
	}
	if sess.Step != StepMethod || sess.Name != "Иван" {
		t.Errorf("mutation lost on prompt failure: step=%q name=%q", sess.Step, sess.Name)
	}

	prompter.err = nil
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "звонок"})
	mustHandle(t, m, TextEvent{Meta: meta(), Text: "+79991234567"})

	// Failed confirmation send still completes: lead sunk, session dropped.
	prompter.err = errors.New("telegram unavailable")
	if err := m.Handle(ctx, TextEvent{Meta: meta(), Text: "-"}); err == nil {
		t.Fatal("confirmation failure not surfaced")
	}
	if len(sink.leads) != 1 {
		t.Fatalf("completed leads = %d, want 1", len(sink.leads))
	}
	if _, ok := store.Get(userID); ok {
		t.Error("session survived completion with failed confirmation")
	}
}

// trackingPrompter counts overlapping prompts per session.
type trackingPrompter struct {
	mu         sync.Mutex
	active     map[int64]int
	violations atomic.Int64
}

func (p *trackingPrompter) Prompt(_ context.Context, sessionID int64, _ string, _ *Keyboard) error {
	p.mu.Lock()
	p.active[sessionID]++
	if p.active[sessionID] > 1 {
		p.violations.Add(1)
	}
	p.mu.Unlock()

	// Hold the session so an unserialized second event would overlap.
	time.Sleep(time.Millisecond)

	p.mu.Lock()
	p.active[sessionID]--
	p.mu.Unlock()
	return nil
}

type trackingSink struct {
	mu    sync.Mutex
	leads map[int64]Lead
}

func (s *trackingSink) Completed(_ context.Context, lead Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.SessionID] = lead
	return nil
}

func TestConcurrentSessionsSerialized(t *testing.T) {
	const sessions = 8

	store := NewMemoryStore(0)
	prompter := &trackingPrompter{active: make(map[int64]int)}
	sink := &trackingSink{leads: make(map[int64]Lead)}
	m := NewMachine(store, i18n.NewTable("ru"), prompter, sink)
	ctx := context.Background()

	// Each stage fires its event for all sessions at once; button and reset
	// stages also fire duplicates within a session. Duplicates are harmless by
	// construction: a repeated reset restarts, a repeated button press hits a
	// step that ignores buttons.
	stages := []struct {
		event  func(id int64) Event
		copies int
	}{
		{func(id int64) Event { return ResetEvent{Meta: Meta{From: id}} }, 4},
		{func(id int64) Event { return ButtonEvent{Meta: Meta{From: id}, Payload: "en"} }, 4},
		{func(id int64) Event { return TextEvent{Meta: Meta{From: id}, Text: "John"} }, 1},
		{func(id int64) Event { return ButtonEvent{Meta: Meta{From: id}, Payload: MethodTelegram} }, 4},
		{func(id int64) Event { return TextEvent{Meta: Meta{From: id}, Text: "+79991234567"} }, 1},
		{func(id int64) Event { return TextEvent{Meta: Meta{From: id}, Text: "urgent"} }, 1},
	}

	for _, stage := range stages {
		var wg sync.WaitGroup
		for id := int64(1); id <= sessions; id++ {
			for c := 0; c < stage.copies; c++ {
				wg.Add(1)
				go func(ev Event) {
					defer wg.Done()
					if err := m.Handle(ctx, ev); err != nil {
						t.Errorf("Handle(%T): %v", ev, err)
					}
				}(stage.event(id))
			}
		}
		wg.Wait()
	}

	if v := prompter.violations.Load(); v != 0 {
		t.Fatalf("overlapping prompts within a session: %d", v)
	}
	if got := store.Len(); got != 0 {
		t.Errorf("sessions left after completion: %d", got)
	}
	if len(sink.leads) != sessions {
		t.Fatalf("completed leads = %d, want %d", len(sink.leads), sessions)
	}
	for id := int64(1); id <= sessions; id++ {
		lead, ok := sink.leads[id]
		if !ok {
			t.Errorf("session %d never completed", id)
			continue
		}
		if lead.Language != "en" || lead.Name != "John" ||
			lead.Method != MethodTelegram || lead.Phone != "+79991234567" || lead.Note != "urgent" {
			t.Errorf("session %d lead = %+v", id, lead)
		}
	}
}

func mustHandle(t *testing.T, m *Machine, ev Event) {
	t.Helper()
	if err := m.Handle(context.Background(), ev); err != nil {
		t.Fatalf("Handle(%T): %v", ev, err)
	}
}
