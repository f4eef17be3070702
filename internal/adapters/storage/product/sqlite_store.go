package product

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bagsberry/internal/adapters/storage"
	domain "bagsberry/internal/domain/product"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const productColumns = "id, name, description, price, sale_price, category_id, brand_id, stock_quantity, image_url, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProductStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Product by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM product WHERE id = ?", id)

	entity, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Product{}, fmt.Errorf("product not found: %w", err)
	}
	return entity, err
}

// Save persists a Product to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Product) error {
	var salePrice interface{}
	if entity.SalePrice > 0 {
		salePrice = entity.SalePrice
	}
	var updatedAt interface{}
	if !entity.UpdatedAt.IsZero() {
		updatedAt = entity.UpdatedAt.Format(dateLayout)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product (id, name, description, price, sale_price, category_id, brand_id, stock_quantity, image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description, price=excluded.price,
		   sale_price=excluded.sale_price, category_id=excluded.category_id,
		   brand_id=excluded.brand_id, stock_quantity=excluded.stock_quantity,
		   image_url=excluded.image_url, updated_at=excluded.updated_at`,
		entity.ID,
		entity.Name,
		entity.Description,
		entity.Price,
		salePrice,
		entity.CategoryID,
		nullableString(entity.BrandID),
		entity.StockQuantity,
		nullableString(entity.ImageURL),
		entity.CreatedAt.Format(dateLayout),
		updatedAt,
	)
	return err
}

// Delete removes a Product from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM product WHERE id = ?", id)
	return err
}

// List retrieves Products based on the filter, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	query, args := buildListQuery("SELECT "+productColumns+" FROM product", filter)
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Product
	for rows.Next() {
		entity, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, nil
}

// Count returns the number of products matching the filter.
// PRE: none
// POST: Returns matching count
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildListQuery("SELECT COUNT(*) FROM product", filter)
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// DecrementStock atomically reduces a product's stock, clamping at zero.
// PRE: id is non-empty, qty > 0
// POST: stock_quantity reduced by up to qty, never below zero
func (s *SQLiteStore) DecrementStock(ctx context.Context, id string, qty int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE product SET stock_quantity = MAX(0, stock_quantity - ?) WHERE id = ?",
		qty, id)
	return err
}

// buildListQuery appends WHERE clauses for the filter to the base query.
func buildListQuery(base string, filter ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.BrandID != "" {
		clauses = append(clauses, "brand_id = ?")
		args = append(args, filter.BrandID)
	}
	if filter.Search != "" {
		clauses = append(clauses, "(name LIKE ? OR description LIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	if filter.InStock {
		clauses = append(clauses, "stock_quantity > 0")
	}

	if len(clauses) > 0 {
		base += " WHERE " + strings.Join(clauses, " AND ")
	}
	return base, args
}

// scanProduct extracts a Product from a row scanner function.
func scanProduct(scan func(dest ...interface{}) error) (domain.Product, error) {
	var entity domain.Product
	var salePrice sql.NullFloat64
	var brandID, imageURL, updatedAt sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Description,
		&entity.Price,
		&salePrice,
		&entity.CategoryID,
		&brandID,
		&entity.StockQuantity,
		&imageURL,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if salePrice.Valid {
		entity.SalePrice = salePrice.Float64
	}
	entity.BrandID = brandID.String
	entity.ImageURL = imageURL.String
	entity.CreatedAt, _ = parseTime(createdAt)
	if updatedAt.Valid && updatedAt.String != "" {
		entity.UpdatedAt, _ = parseTime(updatedAt.String)
	}
	return entity, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
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
