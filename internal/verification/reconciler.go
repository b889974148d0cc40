package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/retry"
)

// ReconcileSettings controls the reconciliation sweep.
type ReconcileSettings struct {
	Interval    time.Duration
	GracePeriod time.Duration
	// MaxAttempts bounds dispatch attempts per claim, counting the
	// initial dispatch by Submit.
	MaxAttempts int
	// BatchLimit bounds claims examined per sweep.
	BatchLimit int
	// Rate is the redispatch budget in tasks per second. Zero disables
	// throttling.
	Rate float64
}

// Completer finalizes a claim whose required sources are all counted.
type Completer interface {
	Complete(ctx context.Context, claimID string) (*domain.Decision, error)
}

// Reconciler re-dispatches tasks for claims whose results never arrived.
type Reconciler struct {
	store     domain.ClaimStore
	sender    sender
	completer Completer
	required  []domain.Source
	settings  ReconcileSettings
	limiter   *rate.Limiter
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewReconciler creates a Reconciler. Each redispatch uses policy for
// retries, like Submit does. Stale claims with nothing missing are handed
// to c.
func NewReconciler(store domain.ClaimStore, d Dispatcher, c Completer, required []domain.Source, policy retry.Policy, settings ReconcileSettings, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	limit, burst := rate.Inf, 1
	if settings.Rate > 0 {
		limit = rate.Limit(settings.Rate)
		burst = max(1, int(settings.Rate))
	}
	if settings.BatchLimit <= 0 {
		settings.BatchLimit = 100
	}
	return &Reconciler{
		store:     store,
		sender:    sender{dispatcher: d, policy: policy, logger: logger, metrics: metrics},
		completer: c,
		required:  required,
		settings:  settings,
		limiter:   rate.NewLimiter(limit, burst),
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run sweeps every Interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Info("reconciler started",
		"interval", r.settings.Interval,
		"grace_period", r.settings.GracePeriod,
		"max_attempts", r.settings.MaxAttempts,
	)
	ticker := r.clock.NewTicker(r.settings.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			n, err := r.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				r.logger.Error("reconcile sweep failed", "error", err)
			}
			if n > 0 {
				r.logger.Info("reconcile sweep redispatched tasks", "tasks", n)
			}
		}
	}
}

// Sweep re-dispatches the missing sources of every stale claim and returns
// the number of tasks delivered. A claim is leased with a compare-and-swap on
// its dispatch timestamp first, so concurrent sweeps never redispatch the
// same claim twice in one grace period. A claim that has used all its
// attempts is reported as starved once and then left under verification.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	now := r.clock.Now()
	// One past MaxAttempts so exhausted claims are seen once more and
	// reported as starved.
	stale, err := r.store.ListStale(ctx, now.Add(-r.settings.GracePeriod), r.settings.MaxAttempts+1, r.settings.BatchLimit)
	if err != nil {
		return 0, err
	}

	var (
		redispatched int
		errs         []error
	)
	for _, claim := range stale {
		n, err := r.reconcile(ctx, claim, now)
		redispatched += n
		if err != nil {
			if ctx.Err() != nil {
				return redispatched, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("reconcile %s: %w", claim.ID, err))
		}
	}
	return redispatched, errors.Join(errs...)
}

func (r *Reconciler) reconcile(ctx context.Context, claim domain.Claim, now time.Time) (int, error) {
	results, err := r.store.ListResults(ctx, claim.ID)
	if err != nil {
		return 0, err
	}
	missing := domain.MissingSources(r.required, domain.ReportedSources(countedResults(results)))

	won, err := r.store.RecordDispatch(ctx, claim.ID, claim.LastDispatchAt, now)
	if err != nil || !won {
		return 0, err
	}

	if len(missing) == 0 {
		d, err := r.completer.Complete(ctx, claim.ID)
		if err != nil {
			return 0, err
		}
		if d != nil {
			r.logger.Info("claim completed by reconciler", "claim_id", claim.ID, "status", d.To)
		}
		return 0, nil
	}

	if claim.DispatchAttempts >= r.settings.MaxAttempts {
		r.metrics.ClaimsStarved.Inc()
		r.logger.Warn("claim starved, dispatch attempts exhausted",
			"claim_id", claim.ID,
			"attempts", claim.DispatchAttempts,
			"missing", missing,
		)
		return 0, nil
	}

	for range missing {
		if err := r.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}
	sent, err := r.sender.send(ctx, claim, missing)
	for _, src := range sent {
		r.metrics.ReconcileRedispatches.WithLabelValues(string(src)).Inc()
	}
	r.logger.Info("claim redispatched",
		"claim_id", claim.ID,
		"attempt", claim.DispatchAttempts+1,
		"sources", sent,
	)
	return len(sent), err
}
