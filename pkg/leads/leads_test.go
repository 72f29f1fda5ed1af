package leads

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			store, err := OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return store
		},
	}
}

func sampleLead(name string, created time.Time) Lead {
	return Lead{
		Name:        name,
		Email:       "sarah.j@example.com",
		Phone:       "(219) 555-0123",
		City:        "Hammond",
		ZipCode:     "46320",
		ServiceType: "Standard",
		Bedrooms:    3,
		Bathrooms:   2,
		Frequency:   "one-time",
		CreatedAt:   created,
	}
}

func TestStores(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)
			defer store.Close()

			base := time.Date(2026, 5, 1, 10, 0, 0, 123456789, time.UTC)
			older, err := store.Add(ctx, sampleLead("Sarah Johnson", base))
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			newer, err := store.Add(ctx, sampleLead("Mike Smith", base.Add(time.Hour)))
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			if older.ID == uuid.Nil || older.Status != StatusNew {
				t.Fatalf("expected id and New status, got %#v", older)
			}

			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff([]Lead{newer, older}, list); diff != "" {
				t.Fatalf("list mismatch (-want +got):\n%s", diff)
			}

			if err := store.UpdateStatus(ctx, older.ID, StatusContacted); err != nil {
				t.Fatalf("update status: %v", err)
			}
			if err := store.UpdateNotes(ctx, older.ID, "Called, left voicemail."); err != nil {
				t.Fatalf("update notes: %v", err)
			}
			got, err := store.Get(ctx, older.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != StatusContacted || got.Notes != "Called, left voicemail." {
				t.Fatalf("updates not applied: %#v", got)
			}

			if err := store.UpdateStatus(ctx, older.ID, Status("Maybe")); !errors.Is(err, ErrInvalidStatus) {
				t.Fatalf("expected ErrInvalidStatus, got %v", err)
			}

			if err := store.Delete(ctx, older.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := store.Get(ctx, older.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			if err := store.Delete(ctx, older.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound on second delete, got %v", err)
			}
			if err := store.UpdateNotes(ctx, uuid.New(), "x"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
			}
		})
	}
}

func TestOpenSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	added, err := store.Add(context.Background(), sampleLead("Sarah Johnson", time.Time{}))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(context.Background(), added.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if diff := cmp.Diff(added, got); diff != "" {
		t.Fatalf("lead mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" booked ")
	if err != nil || got != StatusBooked {
		t.Fatalf("ParseStatus = %q, %v", got, err)
	}
	if _, err := ParseStatus("pending"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
