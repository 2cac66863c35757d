package main

import (
	"context"
	"encoding/json"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/config"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/httpapi"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/hub"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/notify"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/queue"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store/postgres"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/telemetry"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	consumerName = "realtime"
	zeroUUID     = "00000000-0000-0000-0000-000000000000"
)

type eventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// entryTracker refcounts entry subscriptions across clients so the
// recalculator stops fetching an entry only when its last watcher
// disconnects.
type entryTracker struct {
	mu     sync.Mutex
	counts map[string]int
	recalc *queue.Recalculator
}

func (t *entryTracker) watch(ctx context.Context, entryID string) error {
	t.mu.Lock()
	t.counts[entryID]++
	first := t.counts[entryID] == 1
	t.mu.Unlock()
	if !first {
		return nil
	}
	if err := t.recalc.Track(ctx, entryID); err != nil {
		t.mu.Lock()
		t.counts[entryID]--
		if t.counts[entryID] <= 0 {
			delete(t.counts, entryID)
		}
		t.mu.Unlock()
		return err
	}
	return nil
}

func (t *entryTracker) unwatch(entryID string) {
	if entryID == "" {
		return
	}
	t.mu.Lock()
	t.counts[entryID]--
	last := t.counts[entryID] <= 0
	if last {
		delete(t.counts, entryID)
	}
	t.mu.Unlock()
	if last {
		t.recalc.Untrack(entryID)
	}
}

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("realtime")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	pgStore := postgres.NewStore(pool)
	h := hub.New()
	recalc := queue.NewRecalculator(pgStore, cfg.WaitPerCustomer, func(update queue.Update) {
		payload, err := json.Marshal(update)
		if err != nil {
			return
		}
		env := eventEnvelope{Type: "entry.recalculated", Payload: payload, CreatedAt: time.Now().UTC()}
		message, _ := json.Marshal(env)
		// Entry-only meta keeps recalculations off staff dashboards;
		// staff see the underlying change events instead.
		h.Broadcast(message, hub.Subscription{EntryID: update.EntryID})
	})
	tracker := &entryTracker{counts: make(map[string]int), recalc: recalc}
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute: cfg.RateLimitPerMinute,
		IPBurst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		sessionID := sessionIDFromRequest(session.Request())

		client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
		h.Register(client)
		watched := ""
		defer func() {
			h.Unregister(client)
			tracker.unwatch(watched)
		}()

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		for {
			msg, err := session.Recv()
			if err != nil {
				return
			}
			parsed, ok := hub.ParseSubscribe([]byte(msg))
			if !ok {
				continue
			}
			if parsed.Action == "unsubscribe" {
				h.UpdateSubscription(client, hub.Subscription{})
				tracker.unwatch(watched)
				watched = ""
				continue
			}
			switch {
			case parsed.EntryID != "":
				// Customers watch their own entry without logging in.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := tracker.watch(ctx, parsed.EntryID)
				cancel()
				if err != nil {
					_ = session.Close(4004, "unknown entry")
					return
				}
				tracker.unwatch(watched)
				watched = parsed.EntryID
				h.UpdateSubscription(client, hub.Subscription{EntryID: parsed.EntryID})
			case parsed.BusinessID != "":
				if sessionID == "" {
					_ = session.Close(4001, "missing session")
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				authSession, err := pgStore.GetSession(ctx, sessionID)
				cancel()
				if err != nil {
					_ = session.Close(4002, "invalid session")
					return
				}
				if authSession.BusinessID != parsed.BusinessID {
					_ = session.Close(4003, "access denied")
					return
				}
				h.UpdateSubscription(client, hub.Subscription{BusinessID: parsed.BusinessID})
			}
		}
	})
	mux.Handle("/realtime/", sockjsHandler)

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(mux)), "realtime")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	offset, err := pgStore.GetConsumerOffset(context.Background(), consumerName)
	if err != nil {
		log.Printf("load offset error: %v", err)
	}
	if offset.LastEventTime.IsZero() {
		offset.LastEventTime = time.Unix(0, 0).UTC()
	}
	if offset.LastEventID == "" {
		offset.LastEventID = zeroUUID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	var running int32

	go func() {
		log.Printf("realtime listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for range ticker.C {
			if !atomic.CompareAndSwapInt32(&running, 0, 1) {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			events, err := pgStore.ListOutboxEvents(ctx, offset, cfg.BatchSize)
			cancel()
			if err == nil && len(events) > 0 {
				touched := make(map[string]struct{})
				for _, event := range events {
					offset.LastEventTime = event.CreatedAt
					offset.LastEventID = event.EventID
					env := eventEnvelope{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt}
					message, _ := json.Marshal(env)
					h.Broadcast(message, extractMeta(event))
					if strings.HasPrefix(event.Type, "entry.") {
						touched[event.BusinessID] = struct{}{}
					}
				}
				for businessID := range touched {
					recalc.Notify(context.Background(), businessID)
				}

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := pgStore.UpdateConsumerOffset(ctx, consumerName, offset); err != nil {
					log.Printf("update offset error: %v", err)
				}
				notifierOffset, err := pgStore.GetConsumerOffset(ctx, notify.ConsumerName)
				if err != nil {
					log.Printf("notifier offset error: %v", err)
				} else if !notifierOffset.LastEventTime.IsZero() {
					cleanupBefore := offset.LastEventTime
					if notifierOffset.LastEventTime.Before(cleanupBefore) {
						cleanupBefore = notifierOffset.LastEventTime
					}
					if err := pgStore.CleanupOutbox(ctx, cleanupBefore); err != nil {
						log.Printf("cleanup outbox error: %v", err)
					}
				}
				cancel()
			}
			atomic.StoreInt32(&running, 0)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// extractMeta pulls the routing fields a subscription filters on from
// the event payload.
func extractMeta(event store.OutboxEvent) hub.Subscription {
	var data struct {
		EntryID string `json:"entry_id"`
	}
	_ = json.Unmarshal(event.Payload, &data)
	return hub.Subscription{
		BusinessID: event.BusinessID,
		EntryID:    data.EntryID,
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("session_id"))
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
