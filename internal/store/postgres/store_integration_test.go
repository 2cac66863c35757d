package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leandropaiva-dev/minhavez-sub001/internal/models"
	"github.com/leandropaiva-dev/minhavez-sub001/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestJoinQueueConcurrentPositions(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	businessID := uuid.NewString()
	seedBusiness(t, ctx, pool, businessID, true)

	const joiners = 8
	var wg sync.WaitGroup
	positions := make(chan int64, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, applied, err := st.JoinQueue(ctx, store.JoinQueueInput{
				RequestID:    uuid.NewString(),
				BusinessID:   businessID,
				CustomerName: "Customer",
			})
			if err != nil {
				t.Errorf("join: %v", err)
				return
			}
			if !applied {
				t.Error("fresh request_id must apply")
				return
			}
			positions <- entry.Position
		}()
	}
	wg.Wait()
	close(positions)

	seen := make(map[int64]bool)
	for pos := range positions {
		if seen[pos] {
			t.Fatalf("duplicate position %d", pos)
		}
		seen[pos] = true
	}
	if len(seen) != joiners {
		t.Fatalf("expected %d distinct positions, got %d", joiners, len(seen))
	}
}

func TestJoinQueueIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	businessID := uuid.NewString()
	seedBusiness(t, ctx, pool, businessID, true)

	input := store.JoinQueueInput{
		RequestID:    uuid.NewString(),
		BusinessID:   businessID,
		CustomerName: "Ana",
	}
	first, applied, err := st.JoinQueue(ctx, input)
	if err != nil || !applied {
		t.Fatalf("first join: applied=%v err=%v", applied, err)
	}
	replay, applied, err := st.JoinQueue(ctx, input)
	if err != nil {
		t.Fatalf("replay join: %v", err)
	}
	if applied {
		t.Fatal("replay must not apply")
	}
	if replay.EntryID != first.EntryID || replay.Position != first.Position {
		t.Fatalf("replay returned a different entry: %+v vs %+v", replay, first)
	}
}

func TestJoinQueueClosedGate(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	businessID := uuid.NewString()
	seedBusiness(t, ctx, pool, businessID, false)

	_, _, err := st.JoinQueue(ctx, store.JoinQueueInput{
		RequestID:    uuid.NewString(),
		BusinessID:   businessID,
		CustomerName: "Ana",
	})
	if !errors.Is(err, store.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	businessID := uuid.NewString()
	seedBusiness(t, ctx, pool, businessID, true)

	entry, _, err := st.JoinQueue(ctx, store.JoinQueueInput{
		RequestID:    uuid.NewString(),
		BusinessID:   businessID,
		CustomerName: "Ana",
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	called, applied, err := st.CallEntry(ctx, store.EntryActionInput{
		RequestID:  uuid.NewString(),
		BusinessID: businessID,
		EntryID:    entry.EntryID,
	})
	if err != nil || !applied {
		t.Fatalf("call: applied=%v err=%v", applied, err)
	}
	if called.Status != models.StatusCalled || called.CalledAt == nil {
		t.Fatalf("call must set status and called_at: %+v", called)
	}

	// Completing a called entry skips attending and must fail.
	_, _, err = st.CompleteEntry(ctx, store.EntryActionInput{
		RequestID:  uuid.NewString(),
		BusinessID: businessID,
		EntryID:    entry.EntryID,
	})
	if !errors.Is(err, store.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	attending, _, err := st.AttendEntry(ctx, store.EntryActionInput{
		RequestID:  uuid.NewString(),
		BusinessID: businessID,
		EntryID:    entry.EntryID,
	})
	if err != nil || attending.Status != models.StatusAttending {
		t.Fatalf("attend: %+v err=%v", attending, err)
	}

	completed, _, err := st.CompleteEntry(ctx, store.EntryActionInput{
		RequestID:  uuid.NewString(),
		BusinessID: businessID,
		EntryID:    entry.EntryID,
	})
	if err != nil || completed.Status != models.StatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("complete: %+v err=%v", completed, err)
	}
}

func TestCallEntryActionReplay(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	businessID := uuid.NewString()
	seedBusiness(t, ctx, pool, businessID, true)

	entry, _, err := st.JoinQueue(ctx, store.JoinQueueInput{
		RequestID:    uuid.NewString(),
		BusinessID:   businessID,
		CustomerName: "Ana",
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	input := store.EntryActionInput{
		RequestID:  uuid.NewString(),
		BusinessID: businessID,
		EntryID:    entry.EntryID,
	}
	first, applied, err := st.CallEntry(ctx, input)
	if err != nil || !applied {
		t.Fatalf("call: applied=%v err=%v", applied, err)
	}
	replay, applied, err := st.CallEntry(ctx, input)
	if err != nil {
		t.Fatalf("replay call: %v", err)
	}
	if applied {
		t.Fatal("replaying the same request_id must not apply")
	}
	if replay.EntryID != first.EntryID || replay.Status != models.StatusCalled {
		t.Fatalf("replay mismatch: %+v", replay)
	}
}

func TestExpirePendingReservations(t *testing.T) {
	ctx := context.Background()
	st, pool, cleanup := setupTestStore(t, ctx)
	t.Cleanup(cleanup)

	businessID := uuid.NewString()
	seedBusiness(t, ctx, pool, businessID, true)

	past := time.Now().UTC().Add(-2 * time.Hour)
	if _, err := pool.Exec(ctx, `
		INSERT INTO reservations (reservation_id, request_id, business_id, customer_name, party_size, reserved_for, status, created_at)
		VALUES ($1, $2, $3, 'Ana', 2, $4, 'pending', $5)
	`, uuid.NewString(), uuid.NewString(), businessID, past, past.Add(-time.Hour)); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	count, err := st.ExpirePendingReservations(ctx, 30*time.Minute, 100)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 expired reservation, got %d", count)
	}

	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM reservations WHERE business_id = $1`, businessID).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != models.ReservationNoShow {
		t.Fatalf("expected no_show, got %q", status)
	}
}

func setupTestStore(t *testing.T, ctx context.Context) (*Store, *pgxpool.Pool, func()) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		t.Skip("TEST_DB_DSN or DB_DSN is required for integration tests")
	}

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := createSchema(ctx, dsn, schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	pool, err := newPoolWithSchema(ctx, dsn, schema)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}

	st := NewStore(pool)
	cleanup := func() {
		pool.Close()
		_ = dropSchema(context.Background(), dsn, schema)
	}
	return st, pool, cleanup
}

func seedBusiness(t *testing.T, ctx context.Context, pool *pgxpool.Pool, businessID string, open bool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `
		INSERT INTO businesses (business_id, name, is_queue_open, subscription_status)
		VALUES ($1, 'Business', $2, 'active')
	`, businessID, open); err != nil {
		t.Fatalf("insert business: %v", err)
	}
}

func createSchema(ctx context.Context, dsn, schema string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+schema)
	return err
}

func dropSchema(ctx context.Context, dsn, schema string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	_, err = conn.Exec(ctx, "DROP SCHEMA "+schema+" CASCADE")
	return err
}

func newPoolWithSchema(ctx context.Context, dsn, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	return pgxpool.NewWithConfig(ctx, cfg)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	for _, name := range files {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			return err
		}
	}
	return nil
}
