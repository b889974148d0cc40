package verification_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/retry"
	"github.com/couchcryptid/hazard-claim-verifier/internal/store"
	"github.com/couchcryptid/hazard-claim-verifier/internal/verification"
)

var baseTime = time.Date(2026, 4, 26, 15, 0, 0, 0, time.UTC)

var errQueueDown = errors.New("queue unavailable")

// --- mocks ---

type mockDispatcher struct {
	mu    sync.Mutex
	tasks []domain.DispatchTask
	down  map[domain.Source]bool
	calls int
}

func (m *mockDispatcher) Dispatch(_ context.Context, task domain.DispatchTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.down[task.Source] {
		return errQueueDown
	}
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockDispatcher) setDown(src domain.Source, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down == nil {
		m.down = make(map[domain.Source]bool)
	}
	m.down[src] = down
}

func (m *mockDispatcher) sources(claimID string) []domain.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Source
	for _, task := range m.tasks {
		if task.ClaimID == claimID {
			out = append(out, task.Source)
		}
	}
	return out
}

// --- harness ---

type harness struct {
	store       *store.SQLStore
	dispatcher  *mockDispatcher
	metrics     *observability.Metrics
	clock       *clockwork.FakeClock
	coordinator *verification.Coordinator
	collector   *verification.Collector
	engine      *verification.StatusEngine
	reconciler  *verification.Reconciler
}

var twoSources = []domain.Source{domain.SourceWeather, domain.SourceNLP}

func newHarness(t *testing.T, required []domain.Source) *harness {
	t.Helper()

	fakeClock := clockwork.NewFakeClockAt(baseTime)
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	db, err := sql.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	s, err := store.NewSQLite(context.Background(), db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.Default()
	metrics := observability.NewMetricsForTesting()
	dispatcher := &mockDispatcher{}
	policy := retry.Policy{Attempts: 2, Initial: time.Millisecond, Max: time.Millisecond}
	engine := verification.NewStatusEngine(s, logger, metrics)
	collector := verification.NewCollector(s, engine, required, domain.DefaultWeights(), logger, metrics)

	return &harness{
		store:       s,
		dispatcher:  dispatcher,
		metrics:     metrics,
		clock:       fakeClock,
		coordinator: verification.NewCoordinator(s, dispatcher, required, policy, logger, metrics),
		collector:   collector,
		engine:      engine,
		reconciler: verification.NewReconciler(s, dispatcher, collector, required, policy, verification.ReconcileSettings{
			Interval:    time.Minute,
			GracePeriod: 5 * time.Minute,
			MaxAttempts: 3,
		}, fakeClock, logger, metrics),
	}
}

func floodSubmission() domain.Submission {
	return domain.Submission{
		ReporterID:  "reporter-7",
		HazardType:  "flood",
		Description: "water over the road near the bridge",
		Location:    domain.Location{Latitude: 29.76, Longitude: -95.37},
	}
}

func (h *harness) submit(t *testing.T) string {
	t.Helper()
	id, err := h.coordinator.Submit(context.Background(), floodSubmission())
	require.NoError(t, err)
	return id
}

func (h *harness) record(t *testing.T, claimID string, source domain.Source, payload string) verification.Receipt {
	t.Helper()
	receipt, err := h.collector.RecordResult(context.Background(), claimID, string(source), []byte(payload))
	require.NoError(t, err)
	return receipt
}

func (h *harness) claim(t *testing.T, id string) domain.Claim {
	t.Helper()
	c, err := h.store.GetClaim(context.Background(), id)
	require.NoError(t, err)
	return c
}
