package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ichad17/retro-configurator/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `
	id, customer_email, console_type, controllers, hdmi_support,
	custom_color, color_hex, total_price, status, version,
	created_at, completed_at, updated_at
`

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		order.ID,
		order.CustomerEmail,
		int(order.Configuration.ConsoleType),
		order.Configuration.NumberOfControllers,
		order.Configuration.HDMISupport,
		order.Configuration.CustomColor,
		nullString(order.Configuration.ColorHex),
		order.TotalPrice,
		string(order.Status),
		order.Version,
		order.CreatedAt,
		nullTime(order.CompletedAt),
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) List(limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.queryOrders(query+" LIMIT $1", limit)
	}
	return r.queryOrders(query)
}

func (r *orderRepository) ListByEmail(email string, limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_email = $1
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		return r.queryOrders(query+" LIMIT $2", email, limit)
	}
	return r.queryOrders(query, email)
}

func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET customer_email = $1,
		    console_type = $2,
		    controllers = $3,
		    hdmi_support = $4,
		    custom_color = $5,
		    color_hex = $6,
		    total_price = $7,
		    status = $8,
		    version = version + 1,
		    completed_at = $9,
		    updated_at = $10
		WHERE id = $11
		  AND version = $12
	`,
		order.CustomerEmail,
		int(order.Configuration.ConsoleType),
		order.Configuration.NumberOfControllers,
		order.Configuration.HDMISupport,
		order.Configuration.CustomColor,
		nullString(order.Configuration.ColorHex),
		order.TotalPrice,
		string(order.Status),
		nullTime(order.CompletedAt),
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	return nil
}

func (r *orderRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (r *orderRepository) queryOrders(query string, args ...any) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) orderExists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order       domain.Order
		consoleType int
		colorHex    sql.NullString
		status      string
		completedAt sql.NullTime
	)

	if err := row.Scan(
		&order.ID,
		&order.CustomerEmail,
		&consoleType,
		&order.Configuration.NumberOfControllers,
		&order.Configuration.HDMISupport,
		&order.Configuration.CustomColor,
		&colorHex,
		&order.TotalPrice,
		&status,
		&order.Version,
		&order.CreatedAt,
		&completedAt,
		&order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	order.Configuration.ConsoleType = domain.ConsoleType(consoleType)
	order.Configuration.ColorHex = colorHex.String
	order.Status = domain.OrderStatus(status)
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		order.CompletedAt = &t
	}

	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
