package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PostgresSource reads content items from the Postgres-backed content store.
type PostgresSource struct {
	DB *sql.DB
}

// NewPostgresSource opens a connection to the content database.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping content db: %w", err)
	}
	return &PostgresSource{DB: db}, nil
}

const listQuery = `
SELECT id, type, status, title, excerpt, content, terms, author_id, author_name, author_url,
       thumbnail_url, permalink, published_at, updated_at
FROM content_items
WHERE type = ANY($1) AND status = ANY($2)
ORDER BY id
LIMIT $3 OFFSET $4`

// ListByTypeAndStatus returns one page of items matching any of the given
// types and statuses. Pages are 1-based and ordered by item ID so repeated
// iteration is stable.
func (s *PostgresSource) ListByTypeAndStatus(ctx context.Context, types, statuses []string, page, pageSize int) ([]Item, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	rows, err := s.DB.QueryContext(ctx, listQuery, pq.Array(types), pq.Array(statuses), pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const getQuery = `
SELECT id, type, status, title, excerpt, content, terms, author_id, author_name, author_url,
       thumbnail_url, permalink, published_at, updated_at
FROM content_items
WHERE id = $1`

// Get fetches a single item by ID.
func (s *PostgresSource) Get(ctx context.Context, id int64) (Item, error) {
	row := s.DB.QueryRowContext(ctx, getQuery, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get content item %d: %w", id, err)
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		item     Item
		termsRaw []byte
	)
	err := row.Scan(
		&item.ID, &item.Type, &item.Status, &item.Title, &item.Excerpt, &item.Content,
		&termsRaw, &item.Author.ID, &item.Author.Name, &item.Author.URL,
		&item.ThumbnailURL, &item.Permalink, &item.PublishedAt, &item.UpdatedAt,
	)
	if err != nil {
		return Item{}, err
	}
	if len(termsRaw) > 0 {
		if err := json.Unmarshal(termsRaw, &item.Terms); err != nil {
			return Item{}, fmt.Errorf("decode terms for item %d: %w", item.ID, err)
		}
	}
	return item, nil
}
