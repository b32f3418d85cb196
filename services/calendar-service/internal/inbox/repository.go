package inbox

import (
	"context"

	"github.com/md-rashed-zaman/dentalcare/libs/db"
)

// Repository records consumed event ids so redelivered events are handled
// once.
type Repository struct {
	pool db.Querier
}

func NewRepository(pool db.Querier) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS calendar_inbox_events (
			event_id    text PRIMARY KEY,
			event_type  text NOT NULL,
			received_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Record returns false when the event was already seen.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO calendar_inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if db.IsUniqueViolation(err) {
		return false, nil
	}
	return false, err
}
