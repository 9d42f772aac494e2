// Package flow implements the lead-capture conversation state machine.
//
// The machine is transport-agnostic: inbound traffic arrives as a closed set
// of Event shapes and outbound prompts leave through the Prompter interface.
// Events for the same session are serialized; different sessions proceed in
// parallel.
package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/leadbot/core/logger"
	"github.com/m3rciful/leadbot/internal/i18n"
	"github.com/m3rciful/leadbot/internal/phone"
	"log/slog"
)

// Button is one inline keyboard entry.
type Button struct {
	Text    string
	Payload string
}

// Keyboard describes the reply markup attached to a prompt. At most one of
// the shapes is set; the zero value clears any prior keyboard.
type Keyboard struct {
	Inline         [][]Button
	RequestContact bool
	ShareLabel     string
	ManualLabel    string
	Remove         bool
}

// Prompter delivers an outbound prompt to a session. A nil keyboard leaves
// the current reply markup untouched.
type Prompter interface {
	Prompt(ctx context.Context, sessionID int64, text string, kb *Keyboard) error
}

// Lead is the finished record assembled on completion.
type Lead struct {
	SessionID int64
	Username  string
	Language  string
	Name      string
	Method    string
	Phone     string
	Note      string
	CreatedAt time.Time
}

// Sink receives completed leads. Failures are logged and never surfaced to
// the end user: the conversational contract is fulfilled once the data is
// captured, downstream delivery is best-effort.
type Sink interface {
	Completed(ctx context.Context, lead Lead) error
}

// SinkFunc adapts a bare function to the Sink interface.
type SinkFunc func(ctx context.Context, lead Lead) error

// Completed executes the underlying function.
func (f SinkFunc) Completed(ctx context.Context, lead Lead) error {
	return f(ctx, lead)
}

// Machine drives the per-session step sequence.
type Machine struct {
	store  Store
	texts  *i18n.Table
	prompt Prompter
	sink   Sink
	locks  keyedMutex
}

// NewMachine wires the machine. The sink may be nil when completed leads
// have nowhere to go.
func NewMachine(store Store, texts *i18n.Table, prompter Prompter, sink Sink) *Machine {
	return &Machine{
		store:  store,
		texts:  texts,
		prompt: prompter,
		sink:   sink,
	}
}

// InProgress reports whether the session has an active conversation.
func (m *Machine) InProgress(sessionID int64) bool {
	_, ok := m.store.Get(sessionID)
	return ok
}

// ActiveSessions returns the number of conversations currently held.
func (m *Machine) ActiveSessions() int {
	return m.store.Len()
}

// Handle processes one inbound event to completion: load or create the
// session, validate, mutate, emit at most one prompt. A rejected validation
// never advances the step and never loses already accepted fields; an event
// shape the current step does not accept is ignored outright.
func (m *Machine) Handle(ctx context.Context, ev Event) error {
	id := ev.SessionID()
	m.locks.lock(id)
	defer m.locks.unlock(id)

	if _, ok := ev.(ResetEvent); ok {
		return m.restart(ctx, ev)
	}

	sess, ok := m.store.Get(id)
	if !ok {
		// First contact or post-completion traffic: implicit reset.
		return m.restart(ctx, ev)
	}

	switch sess.Step {
	case StepLanguage:
		return m.stepLanguage(ctx, sess, ev)
	case StepName:
		return m.stepName(ctx, sess, ev)
	case StepMethod:
		return m.stepMethod(ctx, sess, ev)
	case StepPhone:
		return m.stepPhone(ctx, sess, ev)
	case StepNote:
		return m.stepNote(ctx, sess, ev)
	default:
		m.logStep(ctx, sess, "flow.step.unknown", "fail")
		return m.restart(ctx, ev)
	}
}

func (m *Machine) restart(ctx context.Context, ev Event) error {
	meta := ev.meta()
	sess := &Session{
		ID:       meta.From,
		Username: meta.Username,
		Step:     StepLanguage,
	}
	m.store.Put(sess)
	m.logStep(ctx, sess, "flow.restart", "ok")

	langs := m.texts.Languages()
	row := make([]Button, 0, len(langs))
	for _, lang := range langs {
		row = append(row, Button{
			Text:    m.texts.Resolve(lang, i18n.KeyLanguageName),
			Payload: lang,
		})
	}
	text := m.texts.Resolve(m.texts.Default(), i18n.KeyAskLanguage)
	return m.prompt.Prompt(ctx, sess.ID, text, &Keyboard{Inline: [][]Button{row}})
}

func (m *Machine) stepLanguage(ctx context.Context, sess *Session, ev Event) error {
	lang := m.texts.Default()
	if btn, ok := ev.(ButtonEvent); ok && m.texts.Known(btn.Payload) {
		lang = strings.ToLower(btn.Payload)
	}
	// Anything else counts as an implicit default-language selection.
	sess.Language = lang
	sess.Step = StepName
	m.store.Put(sess)
	m.logStep(ctx, sess, "flow.step", "ok")
	return m.prompt.Prompt(ctx, sess.ID, m.texts.Resolve(lang, i18n.KeyAskName), nil)
}

func (m *Machine) stepName(ctx context.Context, sess *Session, ev Event) error {
	txt, ok := ev.(TextEvent)
	if !ok {
		m.logStep(ctx, sess, "flow.step.ignored", "skip")
		return nil
	}
	name := strings.TrimSpace(txt.Text)
	if name == "" {
		// Whitespace-only names are rejected; re-ask without advancing.
		m.logStep(ctx, sess, "flow.step.rejected", "retry")
		return m.prompt.Prompt(ctx, sess.ID, m.texts.Resolve(sess.Language, i18n.KeyAskName), nil)
	}
	sess.Name = name
	sess.Step = StepMethod
	m.store.Put(sess)
	m.logStep(ctx, sess, "flow.step", "ok")

	row := []Button{
		{Text: m.texts.Resolve(sess.Language, i18n.KeyMethodCall), Payload: MethodCall},
		{Text: m.texts.Resolve(sess.Language, i18n.KeyMethodTG), Payload: MethodTelegram},
		{Text: m.texts.Resolve(sess.Language, i18n.KeyMethodWA), Payload: MethodWhatsApp},
	}
	text := m.texts.Resolve(sess.Language, i18n.KeyAskMethod)
	return m.prompt.Prompt(ctx, sess.ID, text, &Keyboard{Inline: [][]Button{row}})
}

func (m *Machine) stepMethod(ctx context.Context, sess *Session, ev Event) error {
	var method string
	switch e := ev.(type) {
	case ButtonEvent:
		method = strings.ToLower(strings.TrimSpace(e.Payload))
		if _, ok := knownMethods[method]; !ok {
			method = DefaultMethod
		}
	case TextEvent:
		method = MatchMethod(sess.Language, e.Text)
	default:
		m.logStep(ctx, sess, "flow.step.ignored", "skip")
		return nil
	}
	sess.Method = method
	sess.Step = StepPhone
	m.store.Put(sess)
	m.logStep(ctx, sess, "flow.step", "ok")

	kb := &Keyboard{
		RequestContact: true,
		ShareLabel:     m.texts.Resolve(sess.Language, i18n.KeyBtnShare),
		ManualLabel:    m.texts.Resolve(sess.Language, i18n.KeyBtnManual),
	}
	return m.prompt.Prompt(ctx, sess.ID, m.texts.Resolve(sess.Language, i18n.KeyAskPhone), kb)
}

func (m *Machine) stepPhone(ctx context.Context, sess *Session, ev Event) error {
	var raw string
	switch e := ev.(type) {
	case ContactEvent:
		raw = e.PhoneNumber
	case TextEvent:
		raw = strings.TrimSpace(e.Text)
	default:
		m.logStep(ctx, sess, "flow.step.ignored", "skip")
		return nil
	}

	normalized, err := phone.Normalize(raw)
	if err != nil {
		// Re-ask without advancing; accepted fields stay intact.
		m.logStep(ctx, sess, "flow.step.rejected", "retry")
		return m.prompt.Prompt(ctx, sess.ID, m.texts.Resolve(sess.Language, i18n.KeyPhoneInvalid), nil)
	}

	sess.Phone = normalized
	sess.Step = StepNote
	m.store.Put(sess)
	m.logStep(ctx, sess, "flow.step", "ok")
	return m.prompt.Prompt(ctx, sess.ID, m.texts.Resolve(sess.Language, i18n.KeyAskNote), &Keyboard{Remove: true})
}

func (m *Machine) stepNote(ctx context.Context, sess *Session, ev Event) error {
	txt, ok := ev.(TextEvent)
	if !ok {
		m.logStep(ctx, sess, "flow.step.ignored", "skip")
		return nil
	}
	note := strings.TrimSpace(txt.Text)
	if IsSkipToken(sess.Language, note) {
		note = EmptyNote
	}
	sess.Note = note
	return m.complete(ctx, sess)
}

// complete assembles the lead, hands it to the sink, confirms to the user
// and drops the session. Sink failures never block the confirmation.
func (m *Machine) complete(ctx context.Context, sess *Session) error {
	lead := Lead{
		SessionID: sess.ID,
		Username:  sess.Username,
		Language:  sess.Language,
		Name:      sess.Name,
		Method:    sess.Method,
		Phone:     sess.Phone,
		Note:      sess.Note,
		CreatedAt: time.Now().UTC(),
	}

	if m.sink != nil {
		if err := m.sink.Completed(ctx, lead); err != nil {
			logger.Error(ctx, "flow", "flow.sink.fail",
				slog.Int64("user_id", sess.ID),
				slog.String("err", err.Error()),
			)
		}
	}

	m.logStep(ctx, sess, "flow.completed", "ok")
	err := m.prompt.Prompt(ctx, sess.ID, m.texts.Resolve(sess.Language, i18n.KeyDone), &Keyboard{Remove: true})
	m.store.Delete(sess.ID)
	return err
}

func (m *Machine) logStep(ctx context.Context, sess *Session, event, status string) {
	logger.Debug(ctx, "flow", event,
		slog.String("status", status),
		slog.Int64("user_id", sess.ID),
		slog.String("step", string(sess.Step)),
	)
}

// keyedMutex serializes event handling per session id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id int64) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*lockEntry)
	}
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) unlock(id int64) {
	k.mu.Lock()
	entry := k.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
