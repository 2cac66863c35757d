package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
)

// EntryReader is the slice of the store the recalculator re-fetches
// from on every change event.
type EntryReader interface {
	GetEntry(ctx context.Context, entryID string) (models.QueueEntry, error)
	CountWaitingAhead(ctx context.Context, businessID string, position int64) (int, error)
}

// Update is one recalculated view of a tracked entry. Rank and the
// estimate are zero when the entry is no longer waiting. Seq orders
// updates for one entry: consumers apply an update only if its Seq
// exceeds the last one they applied.
type Update struct {
	EntryID              string     `json:"entry_id"`
	BusinessID           string     `json:"business_id"`
	Status               string     `json:"status"`
	Rank                 int        `json:"rank,omitempty"`
	EstimatedWaitMinutes int        `json:"estimated_wait_minutes"`
	CalledAt             *time.Time `json:"called_at,omitempty"`
	Seq                  uint64     `json:"seq"`
}

// Recalculator keeps live rank/wait figures for tracked entries.
// Change events trigger a fresh fetch rather than trusting pushed
// payloads; overlapping fetches may resolve out of order, so every
// fetch is tagged with an increasing sequence and results older than
// the last applied one are dropped instead of overwriting newer data.
type Recalculator struct {
	reader      EntryReader
	perCustomer time.Duration
	publish     func(Update)

	mu      sync.Mutex
	nextSeq uint64
	entries map[string]*trackedEntry
}

type trackedEntry struct {
	businessID string
	appliedSeq uint64
}

func NewRecalculator(reader EntryReader, perCustomer time.Duration, publish func(Update)) *Recalculator {
	if perCustomer <= 0 {
		perCustomer = DefaultWaitPerCustomer
	}
	if publish == nil {
		publish = func(Update) {}
	}
	return &Recalculator{
		reader:      reader,
		perCustomer: perCustomer,
		publish:     publish,
		entries:     make(map[string]*trackedEntry),
	}
}

// Track starts recalculating for an entry and pushes an initial
// update so a new subscriber does not wait for the next change event.
func (r *Recalculator) Track(ctx context.Context, entryID string) error {
	entry, err := r.reader.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.entries[entryID]; !ok {
		r.entries[entryID] = &trackedEntry{businessID: entry.BusinessID}
	}
	seq := r.claimSeq()
	r.mu.Unlock()

	r.refresh(ctx, entryID, seq)
	return nil
}

func (r *Recalculator) Untrack(entryID string) {
	r.mu.Lock()
	delete(r.entries, entryID)
	r.mu.Unlock()
}

// Notify re-fetches every tracked entry of the given business. Each
// entry gets its own sequence number before the fetches start, so
// however the responses interleave, only the newest wins.
func (r *Recalculator) Notify(ctx context.Context, businessID string) {
	type job struct {
		entryID string
		seq     uint64
	}
	var jobs []job

	r.mu.Lock()
	for entryID, tracked := range r.entries {
		if tracked.businessID != businessID {
			continue
		}
		jobs = append(jobs, job{entryID: entryID, seq: r.claimSeq()})
	}
	r.mu.Unlock()

	for _, j := range jobs {
		go r.refresh(ctx, j.entryID, j.seq)
	}
}

// refresh fetches the entry's current status and waiting-ahead count
// and publishes the derived rank and estimate. A fetch failure leaves
// the previously published figures in place; there is no retry, the
// next change event will try again.
func (r *Recalculator) refresh(ctx context.Context, entryID string, seq uint64) {
	entry, err := r.reader.GetEntry(ctx, entryID)
	if err != nil {
		log.Printf("recalc fetch entry=%s error: %v", entryID, err)
		return
	}

	update := Update{
		EntryID:    entry.EntryID,
		BusinessID: entry.BusinessID,
		Status:     entry.Status,
		CalledAt:   entry.CalledAt,
		Seq:        seq,
	}
	if entry.Status == models.StatusWaiting {
		ahead, err := r.reader.CountWaitingAhead(ctx, entry.BusinessID, entry.Position)
		if err != nil {
			log.Printf("recalc count entry=%s error: %v", entryID, err)
			return
		}
		update.Rank = Rank(ahead)
		update.EstimatedWaitMinutes = EstimateMinutes(ahead, r.perCustomer)
	}

	r.mu.Lock()
	tracked, ok := r.entries[entryID]
	if !ok || seq <= tracked.appliedSeq {
		r.mu.Unlock()
		return
	}
	tracked.appliedSeq = seq
	r.mu.Unlock()

	r.publish(update)
}

// claimSeq must be called with r.mu held.
func (r *Recalculator) claimSeq() uint64 {
	r.nextSeq++
	return r.nextSeq
}
