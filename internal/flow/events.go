package flow

// Meta carries the identity shared by every inbound event.
type Meta struct {
	// From identifies the conversing party; stable for the whole conversation.
	From int64
	// Username is the transport-level handle, used only for the lead card.
	Username string
}

// SessionID returns the session identifier the event belongs to.
func (m Meta) SessionID() int64 { return m.From }

// Event is a closed set of inbound shapes the machine dispatches on.
// Each step declares which shapes it accepts; the rest are ignored.
type Event interface {
	SessionID() int64
	meta() Meta
}

func (m Meta) meta() Meta { return m }

// TextEvent is a plain text message.
type TextEvent struct {
	Meta
	Text string
}

// ContactEvent is a structured contact share carrying a phone number.
type ContactEvent struct {
	Meta
	PhoneNumber string
}

// ButtonEvent is an inline button press carrying its payload token.
type ButtonEvent struct {
	Meta
	Payload string
}

// ResetEvent is an explicit start-over command.
type ResetEvent struct {
	Meta
}
