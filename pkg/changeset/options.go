package changeset

import (
	"log/slog"
	"time"
)

// Option customizes a Policy.
type Option func(*Policy)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) {
		p.logger = logger
	}
}

// WithClock pins the commit timestamp source. Without it the policy uses the
// request-scoped time from the context.
func WithClock(clock func() time.Time) Option {
	return func(p *Policy) {
		p.clock = clock
	}
}

// WithObserver wires policy outcome notifications, typically the metrics
// package.
func WithObserver(observer Observer) Option {
	return func(p *Policy) {
		p.observer = observer
	}
}
