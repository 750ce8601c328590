// Package relay moves committed outbox rows to Kafka. It is the only writer
// of outbox.published_at, and it marks a row only after the broker has
// acknowledged the record, so every event reaches the topic at least once.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Producer is the slice of the Kafka producer the relay needs.
type Producer interface {
	Produce(ctx context.Context, key string, value []byte) error
}

// Relay polls the outbox and publishes pending rows in batches.
type Relay struct {
	db       *sql.DB
	producer Producer
	logger   *slog.Logger

	interval  time.Duration
	batchSize int
}

// Option configures a Relay.
type Option func(*Relay)

// WithInterval sets the poll interval. Default one second.
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize caps rows claimed per poll. Default 100.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func New(db *sql.DB, producer Producer, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		db:        db,
		producer:  producer,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. Publish errors are logged and retried on
// the next tick; they never stop the loop.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if published, err := r.Drain(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			} else if published > 0 {
				r.logger.DebugContext(ctx, "outbox drained", "published", published)
			}
		}
	}
}

type row struct {
	id      string
	payload []byte
}

// Drain claims one batch of unpublished rows, produces them in created_at
// order, and marks the acknowledged ones. It returns how many rows were
// published. Exported so tests and backfill jobs can run single passes.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox claim: %w", err)
	}
	defer tx.Rollback()

	// SKIP LOCKED lets multiple relay instances share the table without
	// publishing the same row twice.
	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("select outbox batch: %w", err)
	}

	var batch []row
	for rows.Next() {
		var entry row
		if err := rows.Scan(&entry.id, &entry.payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	rows.Close()

	published := 0
	for _, entry := range batch {
		if err := r.producer.Produce(ctx, entry.id, entry.payload); err != nil {
			// Row stays unpublished; publish order is preserved by
			// stopping at the first failure.
			break
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET published_at = $1 WHERE id = $2`,
			time.Now(), entry.id,
		); err != nil {
			return published, fmt.Errorf("mark outbox row published: %w", err)
		}
		published++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox claim: %w", err)
	}
	return published, nil
}
