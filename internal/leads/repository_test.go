package leads

import (
	"context"
	"testing"
)

func TestInMemoryRepositorySave(t *testing.T) {
	repo := NewInMemoryRepository()

	lead := &Lead{
		ChatID: 42,
		Name:   "Иван",
		Method: "call",
		Phone:  "+79991234567",
		Note:   "-",
	}
	if err := repo.Save(context.Background(), lead); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if lead.ID == 0 {
		t.Fatal("Save did not assign an id")
	}

	stored, ok := repo.Get(lead.ID)
	if !ok {
		t.Fatalf("Get(%d) missed", lead.ID)
	}
	if stored.Name != "Иван" || stored.Phone != "+79991234567" {
		t.Errorf("stored = %+v", stored)
	}

	// Mutating the caller's struct must not leak into the archive.
	lead.Name = "changed"
	if again, _ := repo.Get(lead.ID); again.Name != "Иван" {
		t.Error("archive shares memory with the caller")
	}

	second := &Lead{ChatID: 43, Name: "Анна", Method: "telegram", Phone: "+79991234568"}
	if err := repo.Save(context.Background(), second); err != nil {
		t.Fatalf("Save second: %v", err)
	}
	if second.ID == lead.ID {
		t.Error("ids are not unique")
	}
	if repo.Len() != 2 {
		t.Errorf("Len() = %d, want 2", repo.Len())
	}
}
