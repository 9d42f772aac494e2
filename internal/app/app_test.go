package app

import (
	"context"
	"strings"
	"testing"

	"github.com/m3rciful/leadbot/internal/flow"
	"github.com/m3rciful/leadbot/internal/i18n"
	"github.com/m3rciful/leadbot/internal/leads"
	"github.com/m3rciful/leadbot/internal/notify"
)

type captureSender struct {
	chats []int64
	texts []string
}

func (s *captureSender) SendTo(_ context.Context, chatID int64, text string) error {
	s.chats = append(s.chats, chatID)
	s.texts = append(s.texts, text)
	return nil
}

func TestLeadCompletedArchivesAndDelivers(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	sender := &captureSender{}
	a := &App{
		texts:    i18n.NewTable("ru"),
		repo:     repo,
		notifier: notify.New(sender, []int64{100}),
	}

	lead := flow.Lead{
		SessionID: 42,
		Username:  "ivan",
		Language:  "ru",
		Name:      "Иван",
		Method:    flow.MethodCall,
		Phone:     "+79991234567",
		Note:      "-",
	}
	if err := a.leadCompleted(context.Background(), lead); err != nil {
		t.Fatalf("leadCompleted: %v", err)
	}

	if repo.Len() != 1 {
		t.Fatalf("archived leads = %d, want 1", repo.Len())
	}
	stored, ok := repo.Get(1)
	if !ok {
		t.Fatal("archived lead not found")
	}
	if stored.ChatID != 42 || stored.Phone != "+79991234567" {
		t.Errorf("archived lead = %+v", stored)
	}

	if len(sender.chats) != 1 || sender.chats[0] != 100 {
		t.Fatalf("delivered to %v, want [100]", sender.chats)
	}
	if !strings.Contains(sender.texts[0], "+79991234567") {
		t.Errorf("card missing the phone:\n%s", sender.texts[0])
	}
}
