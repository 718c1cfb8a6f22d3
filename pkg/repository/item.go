package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/iraqrahomi/iraqnews-bot/pkg/domain"
)

// ItemRepository handles the append-only item ledger
type ItemRepository struct {
	db *sqlx.DB
}

// itemSQL represents a ledger row for SQL operations
type itemSQL struct {
	ID          int64      `db:"id"`
	Source      string     `db:"source"`
	Title       string     `db:"title"`
	URL         string     `db:"url"`
	PublishedAt *time.Time `db:"published_at"`
	TitleHash   string     `db:"title_hash"`
	ContentHash string     `db:"content_hash"`
	CreatedAt   time.Time  `db:"created_at"`
}

// NewItemRepository creates a new item repository
func NewItemRepository(database *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: database}
}

// CreateItem appends a record to the ledger. Rows are immutable once
// written; there are no update or delete operations on this table.
func (r *ItemRepository) CreateItem(ctx context.Context, rec *domain.Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	sqlItem := &itemSQL{
		Source:      rec.Source,
		Title:       rec.Title,
		URL:         rec.URL,
		PublishedAt: rec.PublishedAt,
		TitleHash:   rec.TitleHash,
		ContentHash: rec.ContentHash,
		CreatedAt:   createdAt,
	}

	query := `
		INSERT INTO items (source, title, url, published_at, title_hash, content_hash, created_at)
		VALUES (:source, :title, :url, :published_at, :title_hash, :content_hash, :created_at)
	`

	// retry on SQLite lock errors, stop on anything else
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		result, err := r.db.NamedExecContext(ctx, query, sqlItem)
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("create item: %w", err)}
		}

		id, err := result.LastInsertId()
		if err != nil {
			return &criticalError{err: fmt.Errorf("get insert id: %w", err)}
		}

		rec.ID = id
		rec.CreatedAt = sqlItem.CreatedAt
		return nil
	})
}

// ExistsByFingerprint checks whether any record matches the canonical URL,
// the title fingerprint or the content fingerprint. Any match means the
// candidate is an exact duplicate.
func (r *ItemRepository) ExistsByFingerprint(ctx context.Context, url, titleHash, contentHash string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM items WHERE url = ? OR title_hash = ? OR content_hash = ?)",
		url, titleHash, contentHash)
	if err != nil {
		return false, fmt.Errorf("check item exists: %w", err)
	}
	return exists, nil
}

// RecentTitles returns up to n most recently persisted titles, newest first.
// This bounds the fuzzy duplicate scan to a fixed recency window.
func (r *ItemRepository) RecentTitles(ctx context.Context, n int) ([]string, error) {
	var titles []string
	err := r.db.SelectContext(ctx, &titles,
		"SELECT title FROM items ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("get recent titles: %w", err)
	}
	return titles, nil
}

// GetRecords retrieves ledger rows, newest first, for inspection and tests
func (r *ItemRepository) GetRecords(ctx context.Context, limit int) ([]domain.Record, error) {
	var sqlItems []itemSQL
	err := r.db.SelectContext(ctx, &sqlItems,
		"SELECT * FROM items ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}

	records := make([]domain.Record, len(sqlItems))
	for i, it := range sqlItems {
		records[i] = domain.Record{
			ID:          it.ID,
			Source:      it.Source,
			Title:       it.Title,
			URL:         it.URL,
			PublishedAt: it.PublishedAt,
			TitleHash:   it.TitleHash,
			ContentHash: it.ContentHash,
			CreatedAt:   it.CreatedAt,
		}
	}
	return records, nil
}

// CountItems returns the total number of ledger rows
func (r *ItemRepository) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM items"); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}
