package page

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bagsberry/internal/adapters/storage"
	domain "bagsberry/internal/domain/page"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new content page store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Page by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Page, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, slug, title, body, updated_at FROM content_page WHERE id = ?", id)

	entity, err := scanPage(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Page{}, fmt.Errorf("page not found: %w", err)
	}
	return entity, err
}

// GetBySlug retrieves a Page by its slug.
// PRE: slug is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (domain.Page, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, slug, title, body, updated_at FROM content_page WHERE slug = ?", slug)

	entity, err := scanPage(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Page{}, fmt.Errorf("page not found: %w", err)
	}
	return entity, err
}

// Save persists a Page to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Page) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_page (id, slug, title, body, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   slug=excluded.slug, title=excluded.title, body=excluded.body, updated_at=excluded.updated_at`,
		entity.ID, entity.Slug, entity.Title, entity.Body, entity.UpdatedAt.Format(dateLayout))
	return err
}

// Delete removes a Page from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM content_page WHERE id = ?", id)
	return err
}

// List retrieves all Pages ordered by slug.
// PRE: none
// POST: Returns all pages
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, slug, title, body, updated_at FROM content_page ORDER BY slug ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Page
	for rows.Next() {
		entity, err := scanPage(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// scanPage extracts a Page from a row scanner function.
func scanPage(scan func(dest ...interface{}) error) (domain.Page, error) {
	var entity domain.Page
	var updatedAt string
	if err := scan(&entity.ID, &entity.Slug, &entity.Title, &entity.Body, &updatedAt); err != nil {
		return domain.Page{}, err
	}
	entity.UpdatedAt, _ = parseTime(updatedAt)
	return entity, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
