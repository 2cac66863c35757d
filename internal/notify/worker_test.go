package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"
)

type fakeNotifyStore struct {
	events []store.OutboxEvent
	offset store.Offset

	inserted []store.Notification
	sent     []string
	failed   []string
	dlq      []string
}

func (f *fakeNotifyStore) ListOutboxEvents(ctx context.Context, after store.Offset, limit int) ([]store.OutboxEvent, error) {
	var out []store.OutboxEvent
	for _, event := range f.events {
		if event.CreatedAt.After(after.LastEventTime) {
			out = append(out, event)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotifyStore) GetConsumerOffset(ctx context.Context, consumer string) (store.Offset, error) {
	return f.offset, nil
}

func (f *fakeNotifyStore) UpdateConsumerOffset(ctx context.Context, consumer string, offset store.Offset) error {
	f.offset = offset
	return nil
}

func (f *fakeNotifyStore) CleanupOutbox(ctx context.Context, before time.Time) error {
	return nil
}

func (f *fakeNotifyStore) GetBusiness(ctx context.Context, businessID string) (models.Business, error) {
	return models.Business{BusinessID: businessID, Name: "Barbearia Central"}, nil
}

func (f *fakeNotifyStore) InsertNotification(ctx context.Context, notification store.Notification) error {
	f.inserted = append(f.inserted, notification)
	return nil
}

func (f *fakeNotifyStore) MarkNotificationSent(ctx context.Context, notificationID string) error {
	f.sent = append(f.sent, notificationID)
	return nil
}

func (f *fakeNotifyStore) MarkNotificationFailed(ctx context.Context, notificationID, reason string) error {
	f.failed = append(f.failed, notificationID)
	return nil
}

func (f *fakeNotifyStore) InsertDLQ(ctx context.Context, notificationID, reason string) error {
	f.dlq = append(f.dlq, notificationID)
	return nil
}

type recordingProvider struct {
	name     string
	fail     int
	attempts int
	messages []string
}

func (p *recordingProvider) Name() string { return p.name }

func (p *recordingProvider) Send(ctx context.Context, recipient, message string) error {
	p.attempts++
	if p.attempts <= p.fail {
		return errors.New("gateway unavailable")
	}
	p.messages = append(p.messages, message)
	return nil
}

func calledEvent(t *testing.T, createdAt time.Time, phone string) store.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"entry_id":       "e1",
		"business_id":    "b1",
		"customer_name":  "Ana Souza",
		"customer_phone": phone,
		"position":       7,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return store.OutboxEvent{
		EventID:    "ev1",
		BusinessID: "b1",
		Type:       store.EventEntryCalled,
		Payload:    payload,
		CreatedAt:  createdAt,
	}
}

func TestWorkerSendsOnCalled(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	st := &fakeNotifyStore{events: []store.OutboxEvent{calledEvent(t, now, "11987654321")}}
	provider := &recordingProvider{name: "sms"}
	w := NewWorker(st, []ChannelProvider{provider}, Config{})

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(provider.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(provider.messages))
	}
	want := "Ana Souza, it's your turn at Barbearia Central! You were number 7."
	if provider.messages[0] != want {
		t.Fatalf("unexpected message: %q", provider.messages[0])
	}
	if len(st.inserted) != 1 || st.inserted[0].Channel != "sms" || st.inserted[0].Recipient != "11987654321" {
		t.Fatalf("unexpected notification rows: %+v", st.inserted)
	}
	if len(st.sent) != 1 || len(st.failed) != 0 {
		t.Fatalf("expected one sent, got sent=%d failed=%d", len(st.sent), len(st.failed))
	}
	if st.offset.LastEventID != "ev1" || !st.offset.LastEventTime.Equal(now) {
		t.Fatalf("offset not advanced: %+v", st.offset)
	}
}

func TestWorkerRetriesThenDLQ(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	st := &fakeNotifyStore{events: []store.OutboxEvent{calledEvent(t, now, "11987654321")}}
	provider := &recordingProvider{name: "sms", fail: 10}
	w := NewWorker(st, []ChannelProvider{provider}, Config{MaxAttempts: 3})

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if provider.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", provider.attempts)
	}
	if len(st.failed) != 1 || len(st.dlq) != 1 {
		t.Fatalf("expected failure and DLQ rows, got failed=%d dlq=%d", len(st.failed), len(st.dlq))
	}
	if len(st.sent) != 0 {
		t.Fatal("nothing should be marked sent")
	}
	// The offset still advances; the DLQ row owns the failure.
	if st.offset.LastEventID != "ev1" {
		t.Fatalf("offset not advanced: %+v", st.offset)
	}
}

func TestWorkerSkipsPhonelessEntries(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	st := &fakeNotifyStore{events: []store.OutboxEvent{calledEvent(t, now, "")}}
	provider := &recordingProvider{name: "sms"}
	w := NewWorker(st, []ChannelProvider{provider}, Config{})

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if provider.attempts != 0 || len(st.inserted) != 0 {
		t.Fatal("phoneless entry must not produce a notification")
	}
	if st.offset.LastEventID != "ev1" {
		t.Fatal("offset must advance past skipped events")
	}
}

func TestWorkerIgnoresOtherEventTypes(t *testing.T) {
	now := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	event := calledEvent(t, now, "11987654321")
	event.Type = store.EventEntryCompleted
	st := &fakeNotifyStore{events: []store.OutboxEvent{event}}
	provider := &recordingProvider{name: "sms"}
	w := NewWorker(st, []ChannelProvider{provider}, Config{})

	if err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if provider.attempts != 0 || len(st.inserted) != 0 {
		t.Fatal("only called events notify")
	}
}

func TestRenderMessage(t *testing.T) {
	got := RenderMessage(DefaultTemplate, "Ana", "Salão X", 3)
	want := "Ana, it's your turn at Salão X! You were number 3."
	if got != want {
		t.Fatalf("RenderMessage=%q, want %q", got, want)
	}
}
