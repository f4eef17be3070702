package playlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bagsberry/internal/adapters/storage"
	domain "bagsberry/internal/domain/playlist"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new playlist store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Song by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Song, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, artist, youtube_url, is_active, play_order, created_at FROM playlist_song WHERE id = ?", id)

	entity, err := scanSong(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Song{}, fmt.Errorf("song not found: %w", err)
	}
	return entity, err
}

// Save persists a Song to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Song) error {
	var artist interface{}
	if entity.Artist != "" {
		artist = entity.Artist
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlist_song (id, title, artist, youtube_url, is_active, play_order, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, artist=excluded.artist, youtube_url=excluded.youtube_url,
		   is_active=excluded.is_active, play_order=excluded.play_order`,
		entity.ID, entity.Title, artist, entity.YouTubeURL,
		boolToInt(entity.IsActive), entity.PlayOrder, entity.CreatedAt.Format(dateLayout))
	return err
}

// Delete removes a Song from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM playlist_song WHERE id = ?", id)
	return err
}

// List retrieves songs ordered by play order.
// PRE: none
// POST: Returns songs, restricted to active ones when activeOnly is set
func (s *SQLiteStore) List(ctx context.Context, activeOnly bool) ([]domain.Song, error) {
	query := "SELECT id, title, artist, youtube_url, is_active, play_order, created_at FROM playlist_song"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY play_order ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Song
	for rows.Next() {
		entity, err := scanSong(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// scanSong extracts a Song from a row scanner function.
func scanSong(scan func(dest ...interface{}) error) (domain.Song, error) {
	var entity domain.Song
	var artist sql.NullString
	var isActive int
	var createdAt string
	err := scan(&entity.ID, &entity.Title, &artist, &entity.YouTubeURL, &isActive, &entity.PlayOrder, &createdAt)
	if err != nil {
		return domain.Song{}, err
	}
	entity.Artist = artist.String
	entity.IsActive = isActive != 0
	entity.CreatedAt, _ = parseTime(createdAt)
	return entity, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
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
