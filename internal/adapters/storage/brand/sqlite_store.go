package brand

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bagsberry/internal/adapters/storage"
	domain "bagsberry/internal/domain/brand"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new BrandStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Brand by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Brand, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, description, logo_url, created_at FROM brand WHERE id = ?", id)

	entity, err := scanBrand(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Brand{}, fmt.Errorf("brand not found: %w", err)
	}
	return entity, err
}

// Save persists a Brand to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Brand) error {
	var logoURL interface{}
	if entity.LogoURL != "" {
		logoURL = entity.LogoURL
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brand (id, name, description, logo_url, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description, logo_url=excluded.logo_url`,
		entity.ID, entity.Name, entity.Description, logoURL, entity.CreatedAt.Format(dateLayout))
	return err
}

// Delete removes a Brand from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM brand WHERE id = ?", id)
	return err
}

// List retrieves all Brands ordered by name.
// PRE: none
// POST: Returns all brands
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Brand, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, description, logo_url, created_at FROM brand ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Brand
	for rows.Next() {
		entity, err := scanBrand(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// scanBrand extracts a Brand from a row scanner function.
func scanBrand(scan func(dest ...interface{}) error) (domain.Brand, error) {
	var entity domain.Brand
	var description, logoURL sql.NullString
	var createdAt string
	if err := scan(&entity.ID, &entity.Name, &description, &logoURL, &createdAt); err != nil {
		return domain.Brand{}, err
	}
	entity.Description = description.String
	entity.LogoURL = logoURL.String
	entity.CreatedAt, _ = parseTime(createdAt)
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
