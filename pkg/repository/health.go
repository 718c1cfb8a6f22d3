package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// HealthRepository handles per-source health rows. The rows are mutated
// only through the health tracker; no other component writes them.
type HealthRepository struct {
	db *sqlx.DB
}

// healthSQL represents a source health row for SQL operations
type healthSQL struct {
	Name          string     `db:"name"`
	Failures      int        `db:"failures"`
	DisabledUntil *time.Time `db:"disabled_until"`
}

// NewHealthRepository creates a new health repository
func NewHealthRepository(db *sqlx.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

// Get retrieves the health row for a source. A source with no row is
// healthy: zero failures, no disablement.
func (r *HealthRepository) Get(ctx context.Context, name string) (*domain.SourceHealth, error) {
	var row healthSQL
	err := r.db.GetContext(ctx, &row, "SELECT * FROM sources WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.SourceHealth{Name: name}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source health: %w", err)
	}
	return &domain.SourceHealth{Name: row.Name, Failures: row.Failures, DisabledUntil: row.DisabledUntil}, nil
}

// Upsert writes failures and disabled_until for a source in one statement,
// so the reset on success and the increment on failure are both atomic.
func (r *HealthRepository) Upsert(ctx context.Context, h *domain.SourceHealth) error {
	query := `
		INSERT INTO sources (name, failures, disabled_until) VALUES (:name, :failures, :disabled_until)
		ON CONFLICT(name) DO UPDATE SET failures = excluded.failures, disabled_until = excluded.disabled_until
	`
	row := &healthSQL{Name: h.Name, Failures: h.Failures, DisabledUntil: h.DisabledUntil}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert source health: %w", err)
	}
	return nil
}
