package order

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bagsberry/internal/adapters/storage"
	domain "bagsberry/internal/domain/order"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const orderColumns = `id, account_id, status, payment_method, payment_status,
	subtotal, delivery_charge, total_amount,
	ship_name, ship_email, ship_phone, ship_address, ship_city, ship_state, ship_zip,
	latitude, longitude, map_url,
	tracking_number, estimated_delivery, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new OrderStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Order with its items.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)

	entity, err := scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Order{}, fmt.Errorf("order not found: %w", err)
	}
	if err != nil {
		return domain.Order{}, err
	}

	items, err := s.loadItems(ctx, []string{entity.ID})
	if err != nil {
		return domain.Order{}, err
	}
	entity.Items = items[entity.ID]
	return entity, nil
}

// Save persists an Order and its items atomically. Items are replaced
// wholesale so the stored rows always mirror the domain value.
// PRE: entity has been validated
// POST: Order and all items persisted, or nothing on error
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lat, lng, mapURL interface{}
	if entity.Location != nil {
		lat = entity.Location.Latitude
		lng = entity.Location.Longitude
		mapURL = nullableString(entity.Location.MapURL)
	}
	var updatedAt interface{}
	if !entity.UpdatedAt.IsZero() {
		updatedAt = entity.UpdatedAt.Format(dateLayout)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, payment_status=excluded.payment_status,
		   tracking_number=excluded.tracking_number, estimated_delivery=excluded.estimated_delivery,
		   updated_at=excluded.updated_at`,
		entity.ID,
		nullableString(entity.AccountID),
		entity.Status,
		entity.PaymentMethod,
		entity.PaymentStatus,
		entity.Subtotal,
		entity.DeliveryCharge,
		entity.TotalAmount,
		entity.Shipping.Name,
		entity.Shipping.Email,
		nullableString(entity.Shipping.Phone),
		entity.Shipping.Address,
		nullableString(entity.Shipping.City),
		nullableString(entity.Shipping.State),
		nullableString(entity.Shipping.Zip),
		lat,
		lng,
		mapURL,
		nullableString(entity.TrackingNumber),
		nullableString(entity.EstimatedDelivery),
		entity.CreatedAt.Format(dateLayout),
		updatedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_item WHERE order_id = ?", entity.ID); err != nil {
		return err
	}
	for _, item := range entity.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_item (id, order_id, product_id, name, price, quantity, image_url)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, entity.ID, item.ProductID, item.Name, item.Price, item.Quantity,
			nullableString(item.ImageURL))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes an Order and its items.
// PRE: id is non-empty
// POST: Order and items removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_item WHERE order_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// List retrieves Orders with their items, newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	query, args := buildListQuery("SELECT "+orderColumns+" FROM orders", filter)
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

	var results []domain.Order
	var ids []string
	for rows.Next() {
		entity, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
		ids = append(ids, entity.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		items, err := s.loadItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range results {
			results[i].Items = items[results[i].ID]
		}
	}
	return results, nil
}

// Count returns the number of orders matching the filter.
// PRE: none
// POST: Returns matching count
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	query, args := buildListQuery("SELECT COUNT(*) FROM orders", filter)
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// loadItems fetches items for the given order IDs, grouped by order.
func (s *SQLiteStore) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.Item, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(orderIDs)), ", ")
	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, name, price, quantity, image_url
		 FROM order_item WHERE order_id IN (`+placeholders+`) ORDER BY rowid ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.Item)
	for rows.Next() {
		var item domain.Item
		var imageURL sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &imageURL); err != nil {
			return nil, err
		}
		item.ImageURL = imageURL.String
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, rows.Err()
}

// buildListQuery appends WHERE clauses for the filter to the base query.
func buildListQuery(base string, filter ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.AccountID != "" {
		clauses = append(clauses, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if len(clauses) > 0 {
		base += " WHERE " + strings.Join(clauses, " AND ")
	}
	return base, args
}

// scanOrder extracts an Order (without items) from a row scanner function.
func scanOrder(scan func(dest ...interface{}) error) (domain.Order, error) {
	var entity domain.Order
	var accountID, phone, city, state, zip, mapURL, tracking, estimated, updatedAt sql.NullString
	var lat, lng sql.NullFloat64
	var createdAt string
	err := scan(
		&entity.ID,
		&accountID,
		&entity.Status,
		&entity.PaymentMethod,
		&entity.PaymentStatus,
		&entity.Subtotal,
		&entity.DeliveryCharge,
		&entity.TotalAmount,
		&entity.Shipping.Name,
		&entity.Shipping.Email,
		&phone,
		&entity.Shipping.Address,
		&city,
		&state,
		&zip,
		&lat,
		&lng,
		&mapURL,
		&tracking,
		&estimated,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	entity.AccountID = accountID.String
	entity.Shipping.Phone = phone.String
	entity.Shipping.City = city.String
	entity.Shipping.State = state.String
	entity.Shipping.Zip = zip.String
	if lat.Valid || lng.Valid || mapURL.Valid {
		entity.Location = &domain.Location{
			Latitude:  lat.Float64,
			Longitude: lng.Float64,
			MapURL:    mapURL.String,
		}
	}
	entity.TrackingNumber = tracking.String
	entity.EstimatedDelivery = estimated.String
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
