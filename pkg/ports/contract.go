package ports

import (
	"context"
	"errors"
	"testing"

	"github.com/necyberteam/qabot/pkg/domain"
)

// RunStateStoreContract is a reusable suite verifying that an adapter
// complies with StateStore semantics. Adapter test files call it against a
// fresh store.
func RunStateStoreContract(t *testing.T, store StateStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-session"

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, sessionID)
		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Save_Load", func(t *testing.T) {
		state := domain.NewState(sessionID, "start")
		state.Context["ticketForm"] = map[string]any{"summary": "printer on fire"}
		if err := store.Save(ctx, sessionID, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		loaded, err := store.Load(ctx, sessionID)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded.CurrentNode != "start" {
			t.Errorf("expected node 'start', got %q", loaded.CurrentNode)
		}
		if loaded.SessionID != sessionID {
			t.Errorf("expected session %q, got %q", sessionID, loaded.SessionID)
		}
	})

	t.Run("Save_Isolation", func(t *testing.T) {
		state := domain.NewState(sessionID, "start")
		if err := store.Save(ctx, sessionID, state); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		// Mutating the saved value must not leak into the store.
		state.CurrentNode = "mutated"
		loaded, err := store.Load(ctx, sessionID)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if loaded.CurrentNode != "start" {
			t.Errorf("store leaked caller mutation: got %q", loaded.CurrentNode)
		}
	})

	t.Run("List", func(t *testing.T) {
		sessions, err := store.List(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		found := false
		for _, id := range sessions {
			if id == sessionID {
				found = true
			}
		}
		if !found {
			t.Errorf("session %q missing from list %v", sessionID, sessions)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, sessionID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		_, err := store.Load(ctx, sessionID)
		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}
	})
}
