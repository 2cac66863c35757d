package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
)

// ConsumerName keys the notifier's persisted outbox offset.
const ConsumerName = "notifier"

type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	Template    string
}

// Worker drains the outbox and notifies customers whose entry was
// called. Offsets advance only after a batch is handled, so a crash
// replays at-least-once; the notifications table absorbs duplicates
// downstream.
type Worker struct {
	store       store.NotifyStore
	providers   []ChannelProvider
	interval    time.Duration
	batchSize   int
	maxAttempts int
	template    string
}

func NewWorker(notifyStore store.NotifyStore, providers []ChannelProvider, config Config) *Worker {
	if len(providers) == 0 {
		providers = []ChannelProvider{LogProvider{}}
	}
	interval := config.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	template := config.Template
	if template == "" {
		template = DefaultTemplate
	}
	return &Worker{
		store:       notifyStore,
		providers:   providers,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		template:    template,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				log.Printf("notify sweep error: %v", err)
			}
		}
	}
}

// RunOnce processes one batch of outbox events and persists the new
// offset. It is exposed for tests and for on-demand draining.
func (w *Worker) RunOnce(ctx context.Context) error {
	offset, err := w.store.GetConsumerOffset(ctx, ConsumerName)
	if err != nil {
		return err
	}
	events, err := w.store.ListOutboxEvents(ctx, offset, w.batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if event.Type == store.EventEntryCalled {
			w.handleCalled(ctx, event)
		}
	}

	last := events[len(events)-1]
	return w.store.UpdateConsumerOffset(ctx, ConsumerName, store.Offset{
		LastEventTime: last.CreatedAt,
		LastEventID:   last.EventID,
	})
}

type calledPayload struct {
	EntryID       string `json:"entry_id"`
	BusinessID    string `json:"business_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Position      int64  `json:"position"`
}

func (w *Worker) handleCalled(ctx context.Context, event store.OutboxEvent) {
	var payload calledPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		log.Printf("notify skip event_id=%s bad payload: %v", event.EventID, err)
		return
	}
	if payload.CustomerPhone == "" {
		// Anonymous walk-in; nothing to deliver to.
		return
	}

	business, err := w.store.GetBusiness(ctx, event.BusinessID)
	if err != nil {
		log.Printf("notify skip event_id=%s business lookup: %v", event.EventID, err)
		return
	}
	message := RenderMessage(w.template, payload.CustomerName, business.Name, payload.Position)

	for _, provider := range w.providers {
		w.deliver(ctx, provider, event.BusinessID, payload.CustomerPhone, message)
	}
}

func (w *Worker) deliver(ctx context.Context, provider ChannelProvider, businessID, recipient, message string) {
	notificationID := uuid.NewString()
	if err := w.store.InsertNotification(ctx, store.Notification{
		NotificationID: notificationID,
		BusinessID:     businessID,
		Channel:        provider.Name(),
		Recipient:      recipient,
		Status:         "pending",
	}); err != nil {
		log.Printf("notify insert channel=%s error: %v", provider.Name(), err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		lastErr = provider.Send(ctx, recipient, message)
		if lastErr == nil {
			if err := w.store.MarkNotificationSent(ctx, notificationID); err != nil {
				log.Printf("notify mark sent notification_id=%s error: %v", notificationID, err)
			}
			return
		}
		log.Printf("notify send channel=%s attempt=%d error: %v", provider.Name(), attempt, lastErr)
	}

	if err := w.store.MarkNotificationFailed(ctx, notificationID, lastErr.Error()); err != nil {
		log.Printf("notify mark failed notification_id=%s error: %v", notificationID, err)
	}
	if err := w.store.InsertDLQ(ctx, notificationID, lastErr.Error()); err != nil {
		log.Printf("notify dlq notification_id=%s error: %v", notificationID, err)
	}
}
