package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
	"github.com/couchcryptid/hazard-claim-verifier/internal/observability"
	"github.com/couchcryptid/hazard-claim-verifier/internal/retry"
)

// Dispatcher delivers one task to its verifier's queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, task domain.DispatchTask) error
}

// sender dispatches tasks with bounded retry. It is shared by the
// Coordinator and the Reconciler.
type sender struct {
	dispatcher Dispatcher
	policy     retry.Policy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// send dispatches one task per source. It returns the sources that were
// delivered and the joined errors of those that were not.
func (s *sender) send(ctx context.Context, claim domain.Claim, sources []domain.Source) ([]domain.Source, error) {
	var (
		sent []domain.Source
		errs []error
	)
	for _, src := range sources {
		task := domain.NewDispatchTask(claim, src)
		err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			return s.dispatcher.Dispatch(ctx, task)
		})
		if err != nil {
			s.metrics.Dispatches.WithLabelValues(string(src), "failure").Inc()
			s.logger.Warn("dispatch failed", "claim_id", claim.ID, "source", src, "error", err)
			errs = append(errs, fmt.Errorf("dispatch %s: %w", src, err))
			continue
		}
		s.metrics.Dispatches.WithLabelValues(string(src), "success").Inc()
		sent = append(sent, src)
	}
	return sent, errors.Join(errs...)
}
