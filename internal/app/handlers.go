package app

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/leadbot/core/telegram/helpers"
	"github.com/m3rciful/leadbot/internal/flow"
)

// flowCallbackKey namespaces every inline button of the conversation.
const flowCallbackKey = "flow"

// handleStart resets the conversation: /start, free text without an active
// session, and an unexpected contact share all land here.
func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.machine.Handle(ctx, flow.ResetEvent{Meta: metaFrom(c)})
}

// handleFlowButton forwards an inline button press to the machine.
func (a *App) handleFlowButton(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.machine.Handle(ctx, flow.ButtonEvent{
		Meta:    metaFrom(c),
		Payload: callbacks.CallbackPayload(c),
	})
}

// handleStats reports runtime counters to the admin.
func (a *App) handleStats(c tele.Context) error {
	text := fmt.Sprintf("Active sessions: %d\nSend errors: %d",
		a.machine.ActiveSessions(), a.dispatcher.ErrorCount())
	return tghelpers.SendText(c, text)
}

// fsmAdapter routes in-conversation updates into the machine.
type fsmAdapter struct {
	machine *flow.Machine
}

// InProgress reports whether the user has an active conversation.
func (f *fsmAdapter) InProgress(userID int64) bool {
	return f.machine.InProgress(userID)
}

// ManagerHandler converts the update into a flow event and dispatches it.
func (f *fsmAdapter) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return f.machine.Handle(ctx, eventFrom(c))
}

func metaFrom(c tele.Context) flow.Meta {
	meta := flow.Meta{}
	if user := c.Sender(); user != nil {
		meta.From = user.ID
		meta.Username = user.Username
	} else if chat := c.Chat(); chat != nil {
		meta.From = chat.ID
	}
	return meta
}

func eventFrom(c tele.Context) flow.Event {
	meta := metaFrom(c)
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		return flow.ContactEvent{Meta: meta, PhoneNumber: msg.Contact.PhoneNumber}
	}
	return flow.TextEvent{Meta: meta, Text: c.Text()}
}
