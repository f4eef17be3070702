package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "bagsberry/internal/domain/outbox"
)

type fakeFullOutboxStore struct {
	entries map[string]domain.Entry
}

func newFakeFullOutboxStore() *fakeFullOutboxStore {
	return &fakeFullOutboxStore{entries: make(map[string]domain.Entry)}
}

func (f *fakeFullOutboxStore) GetByID(_ context.Context, id string) (domain.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return domain.Entry{}, fmt.Errorf("entry not found")
	}
	return e, nil
}

func (f *fakeFullOutboxStore) Save(_ context.Context, e domain.Entry) error {
	f.entries[e.ID] = e
	return nil
}

func (f *fakeFullOutboxStore) ListPending(_ context.Context, limit int) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range f.entries {
		if e.Status == domain.StatusPending || e.Status == domain.StatusRetrying {
			out = append(out, e)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeFullOutboxStore) ListFailed(_ context.Context, limit int) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range f.entries {
		if e.Status == domain.StatusFailed {
			out = append(out, e)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeFullOutboxStore) Delete(_ context.Context, id string) error {
	delete(f.entries, id)
	return nil
}

func emailEntry(id string) domain.Entry {
	payload, _ := json.Marshal(EmailPayload{
		To:      "asha@example.com",
		Subject: "Your order",
		HTML:    "<p>hi</p>",
	})
	return domain.Entry{
		ID:          id,
		ActionType:  domain.ActionTypeOrderEmail,
		Payload:     string(payload),
		Status:      domain.StatusPending,
		MaxAttempts: 3,
		CreatedAt:   time.Now(),
	}
}

// TestProcessPending_Success verifies a queued email is delivered and
// the entry marked done with the provider ID.
func TestProcessPending_Success(t *testing.T) {
	store := newFakeFullOutboxStore()
	store.entries["e1"] = emailEntry("e1")
	sender := &fakeSender{}
	p := NewOutboxProcessor(store, map[string]ActionExecutor{
		domain.ActionTypeOrderEmail: &EmailExecutor{Sender: sender, FromAddress: "orders@bagsberry.com"},
	})

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending failed: %v", err)
	}
	e := store.entries["e1"]
	if e.Status != domain.StatusDone || e.ExternalID != "msg_1" {
		t.Errorf("entry = %+v", e)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "asha@example.com" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

// TestProcessPending_FailureExhaustsAttempts verifies repeated failures
// drive the entry to the failed terminal state.
func TestProcessPending_FailureExhaustsAttempts(t *testing.T) {
	store := newFakeFullOutboxStore()
	store.entries["e1"] = emailEntry("e1")
	sender := &fakeSender{sendErr: errors.New("provider down")}
	p := NewOutboxProcessor(store, map[string]ActionExecutor{
		domain.ActionTypeOrderEmail: &EmailExecutor{Sender: sender},
	})
	// Advance the clock past the backoff window on every pass.
	fakeNow := time.Now()
	p.now = func() time.Time {
		fakeNow = fakeNow.Add(2 * time.Hour)
		return fakeNow
	}

	for i := 0; i < 5; i++ {
		if err := p.ProcessPending(context.Background()); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	e := store.entries["e1"]
	if e.Status != domain.StatusFailed {
		t.Errorf("status = %q, want failed", e.Status)
	}
	if e.Attempts != 3 {
		t.Errorf("attempts = %d, want max 3", e.Attempts)
	}
}

// TestProcessPending_RespectsBackoff verifies a recently attempted entry
// is skipped.
func TestProcessPending_RespectsBackoff(t *testing.T) {
	store := newFakeFullOutboxStore()
	e := emailEntry("e1")
	e.Status = domain.StatusRetrying
	e.Attempts = 1
	e.LastAttemptedAt = time.Now()
	store.entries["e1"] = e

	sender := &fakeSender{}
	p := NewOutboxProcessor(store, map[string]ActionExecutor{
		domain.ActionTypeOrderEmail: &EmailExecutor{Sender: sender},
	})

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending failed: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("entry executed inside backoff window")
	}
}

// TestProcessPending_NoExecutor verifies unknown action types fail fast.
func TestProcessPending_NoExecutor(t *testing.T) {
	store := newFakeFullOutboxStore()
	e := emailEntry("e1")
	e.ActionType = "carrier_pickup"
	store.entries["e1"] = e

	p := NewOutboxProcessor(store, nil)
	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending failed: %v", err)
	}
	if store.entries["e1"].ErrorMessage == "" {
		t.Error("expected error recorded for missing executor")
	}
}

// TestAbandonEntry verifies admin abandonment goes terminal.
func TestAbandonEntry(t *testing.T) {
	store := newFakeFullOutboxStore()
	store.entries["e1"] = emailEntry("e1")
	p := NewOutboxProcessor(store, nil)

	if err := p.AbandonEntry(context.Background(), "e1"); err != nil {
		t.Fatalf("AbandonEntry failed: %v", err)
	}
	if store.entries["e1"].Status != domain.StatusAbandoned {
		t.Error("entry not abandoned")
	}
	if err := p.ProcessSingle(context.Background(), "e1"); err == nil {
		t.Error("terminal entry should not be retryable")
	}
}

// Compile-time check that EmailExecutor satisfies ActionExecutor.
var _ ActionExecutor = (*EmailExecutor)(nil)
