package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/leadbot/internal/flow"
	"github.com/m3rciful/leadbot/internal/i18n"
)

type fakeSender struct {
	sent    []int64
	failFor map[int64]error
}

func (s *fakeSender) SendTo(_ context.Context, chatID int64, _ string) error {
	if err, ok := s.failFor[chatID]; ok {
		return err
	}
	s.sent = append(s.sent, chatID)
	return nil
}

func TestDeliverIsolatesFailures(t *testing.T) {
	boom := errors.New("chat not found")
	sender := &fakeSender{failFor: map[int64]error{200: boom}}
	n := New(sender, []int64{100, 200, 300})

	outcomes := n.Deliver(context.Background(), "lead card")

	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	if outcomes[0].Recipient != 100 || outcomes[0].Err != nil {
		t.Errorf("outcome[0] = %+v", outcomes[0])
	}
	if outcomes[1].Recipient != 200 || !errors.Is(outcomes[1].Err, boom) {
		t.Errorf("outcome[1] = %+v, want wrapped failure", outcomes[1])
	}
	if outcomes[2].Recipient != 300 || outcomes[2].Err != nil {
		t.Errorf("outcome[2] = %+v", outcomes[2])
	}
	// A and C still received the card.
	if len(sender.sent) != 2 || sender.sent[0] != 100 || sender.sent[1] != 300 {
		t.Errorf("sent = %v, want [100 300]", sender.sent)
	}
}

func TestDeliverEmptyRecipientsIsNoop(t *testing.T) {
	sender := &fakeSender{}
	n := New(sender, nil)

	if got := n.Deliver(context.Background(), "lead card"); got != nil {
		t.Errorf("Deliver() = %v, want nil for empty recipient list", got)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want none", sender.sent)
	}
}

func TestRenderCard(t *testing.T) {
	texts := i18n.NewTable("ru")
	lead := flow.Lead{
		SessionID: 42,
		Username:  "ivan",
		Language:  "ru",
		Name:      "Иван Петров",
		Method:    flow.MethodTelegram,
		Phone:     "+79991234567",
		Note:      "-",
	}

	card := RenderCard(texts, lead)

	for _, want := range []string{"Иван Петров", "+79991234567", "Telegram", "@ivan", "Новая заявка"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

func TestRenderCardFallsBackToChatID(t *testing.T) {
	texts := i18n.NewTable("ru")
	card := RenderCard(texts, flow.Lead{SessionID: 42, Name: "Анна", Method: flow.MethodCall, Phone: "+79991234567", Note: "-"})
	if !strings.Contains(card, "42") {
		t.Errorf("card missing chat id fallback:\n%s", card)
	}
}

func TestRenderCardEscapesMarkdown(t *testing.T) {
	texts := i18n.NewTable("ru")
	card := RenderCard(texts, flow.Lead{
		SessionID: 42,
		Name:      "x_y*z",
		Method:    flow.MethodCall,
		Phone:     "+79991234567",
		Note:      "-",
	})
	if !strings.Contains(card, `x\_y\*z`) {
		t.Errorf("user input not escaped:\n%s", card)
	}
}
