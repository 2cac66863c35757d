package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
)

type fakeReader struct {
	mu      sync.Mutex
	entries map[string]models.QueueEntry
	ahead   map[string]int
}

func (f *fakeReader) GetEntry(ctx context.Context, entryID string) (models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[entryID]
	if !ok {
		return models.QueueEntry{}, context.Canceled
	}
	return entry, nil
}

func (f *fakeReader) CountWaitingAhead(ctx context.Context, businessID string, position int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ahead[businessID], nil
}

func (f *fakeReader) set(entry models.QueueEntry, ahead int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.EntryID] = entry
	f.ahead[entry.BusinessID] = ahead
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		entries: make(map[string]models.QueueEntry),
		ahead:   make(map[string]int),
	}
}

func waitingEntry(entryID, businessID string, position int64) models.QueueEntry {
	return models.QueueEntry{
		EntryID:    entryID,
		BusinessID: businessID,
		Position:   position,
		Status:     models.StatusWaiting,
	}
}

func collect(updates chan Update, t *testing.T) Update {
	t.Helper()
	select {
	case update := <-updates:
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestTrackPublishesInitialUpdate(t *testing.T) {
	reader := newFakeReader()
	reader.set(waitingEntry("e1", "b1", 5), 2)

	updates := make(chan Update, 8)
	r := NewRecalculator(reader, 15*time.Minute, func(u Update) { updates <- u })

	if err := r.Track(context.Background(), "e1"); err != nil {
		t.Fatalf("track: %v", err)
	}

	update := collect(updates, t)
	if update.Rank != 3 || update.EstimatedWaitMinutes != 30 {
		t.Fatalf("expected rank 3 / 30 min, got %+v", update)
	}
}

func TestNotifyRefreshesOnlyMatchingBusiness(t *testing.T) {
	reader := newFakeReader()
	reader.set(waitingEntry("e1", "b1", 1), 0)
	reader.set(waitingEntry("e2", "b2", 1), 0)

	updates := make(chan Update, 8)
	r := NewRecalculator(reader, 15*time.Minute, func(u Update) { updates <- u })
	if err := r.Track(context.Background(), "e1"); err != nil {
		t.Fatalf("track e1: %v", err)
	}
	if err := r.Track(context.Background(), "e2"); err != nil {
		t.Fatalf("track e2: %v", err)
	}
	collect(updates, t)
	collect(updates, t)

	reader.set(waitingEntry("e1", "b1", 1), 3)
	r.Notify(context.Background(), "b1")

	update := collect(updates, t)
	if update.EntryID != "e1" || update.Rank != 4 {
		t.Fatalf("expected refreshed e1, got %+v", update)
	}
	select {
	case extra := <-updates:
		t.Fatalf("unexpected update for %s", extra.EntryID)
	case <-time.After(100 * time.Millisecond):
	}
}

// A fetch tagged with an old sequence must never overwrite a newer
// result, however late it resolves.
func TestStaleSequenceDiscarded(t *testing.T) {
	reader := newFakeReader()
	reader.set(waitingEntry("e1", "b1", 1), 5)

	updates := make(chan Update, 8)
	r := NewRecalculator(reader, 15*time.Minute, func(u Update) { updates <- u })
	if err := r.Track(context.Background(), "e1"); err != nil {
		t.Fatalf("track: %v", err)
	}
	first := collect(updates, t)

	// Replay the already-applied sequence with different data.
	reader.set(waitingEntry("e1", "b1", 1), 0)
	r.refresh(context.Background(), "e1", first.Seq)

	select {
	case update := <-updates:
		t.Fatalf("stale refresh must be dropped, got %+v", update)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUntrackStopsUpdates(t *testing.T) {
	reader := newFakeReader()
	reader.set(waitingEntry("e1", "b1", 1), 0)

	updates := make(chan Update, 8)
	r := NewRecalculator(reader, 15*time.Minute, func(u Update) { updates <- u })
	if err := r.Track(context.Background(), "e1"); err != nil {
		t.Fatalf("track: %v", err)
	}
	collect(updates, t)

	r.Untrack("e1")
	r.Notify(context.Background(), "b1")

	select {
	case update := <-updates:
		t.Fatalf("untracked entry must not publish, got %+v", update)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNonWaitingEntryHasNoRank(t *testing.T) {
	calledAt := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	reader := newFakeReader()
	reader.set(models.QueueEntry{
		EntryID:    "e1",
		BusinessID: "b1",
		Status:     models.StatusCalled,
		CalledAt:   &calledAt,
	}, 9)

	updates := make(chan Update, 8)
	r := NewRecalculator(reader, 15*time.Minute, func(u Update) { updates <- u })
	if err := r.Track(context.Background(), "e1"); err != nil {
		t.Fatalf("track: %v", err)
	}

	update := collect(updates, t)
	if update.Status != models.StatusCalled || update.Rank != 0 || update.CalledAt == nil {
		t.Fatalf("unexpected update for called entry: %+v", update)
	}
}
