package flow

import (
	"testing"
	"time"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore(0)

	if _, ok := store.Get(1); ok {
		t.Fatal("empty store returned a session")
	}

	store.Put(&Session{ID: 1, Step: StepName, Name: "Иван"})
	store.Put(&Session{ID: 2, Step: StepLanguage})

	sess, ok := store.Get(1)
	if !ok || sess.Name != "Иван" || sess.Step != StepName {
		t.Fatalf("Get(1) = %+v, %v", sess, ok)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}

	store.Delete(1)
	if _, ok := store.Get(1); ok {
		t.Error("session survived Delete")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	store := NewMemoryStore(50 * time.Millisecond)

	store.Put(&Session{ID: 1, Step: StepPhone})
	if _, ok := store.Get(1); !ok {
		t.Fatal("fresh session reported expired")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := store.Get(1); ok {
		t.Error("idle session not expired")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after expiry, want 0", store.Len())
	}
}

func TestMemoryStorePutRefreshesTTL(t *testing.T) {
	store := NewMemoryStore(60 * time.Millisecond)

	store.Put(&Session{ID: 1, Step: StepName})
	time.Sleep(40 * time.Millisecond)

	sess, ok := store.Get(1)
	if !ok {
		t.Fatal("session expired early")
	}
	store.Put(sess) // touch
	time.Sleep(40 * time.Millisecond)

	if _, ok := store.Get(1); !ok {
		t.Error("touched session expired despite refresh")
	}
}
