package http

import (
	"context"
	"fmt"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// CheckFunc adapts a function, such as a store's Ping, to a readiness check.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) CheckReadiness(ctx context.Context) error {
	return f(ctx)
}

// NamedCheck labels a readiness check in error messages.
type NamedCheck struct {
	Name  string
	Check sharedobs.ReadinessChecker
}

// Readiness is ready only when every check is.
type Readiness []NamedCheck

func (rs Readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range rs {
		if err := c.Check.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
	}
	return nil
}
