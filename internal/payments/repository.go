package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the interface for payment persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Payment, error)
	Create(ctx context.Context, p Payment) (int64, error)
	Delete(ctx context.Context, id int64) error
	SumByOrder(ctx context.Context, orderID int64) (float64, error)
	CollectedBetween(ctx context.Context, from, to time.Time) (float64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const paymentColumns = `id, order_id, amount, mode, reference_no, paid_at, notes, recorded_by, created_at`

func scanPayment(row pgx.Row, p *Payment) error {
	return row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Mode, &p.ReferenceNo,
		&p.PaidAt, &p.Notes, &p.RecordedBy, &p.CreatedAt)
}

// GetByID retrieves a payment by ID.
func (r *repository) GetByID(ctx context.Context, id int64) (*Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	var p Payment
	if err := scanPayment(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByOrder returns every payment against an order, oldest first.
func (r *repository) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE order_id = $1 ORDER BY paid_at, id`, paymentColumns)
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Payment
	for rows.Next() {
		var p Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Create inserts the payment row and returns its ID.
func (r *repository) Create(ctx context.Context, p Payment) (int64, error) {
	query := `
		INSERT INTO payments (order_id, amount, mode, reference_no, paid_at, notes, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		p.OrderID, p.Amount, p.Mode, p.ReferenceNo, p.PaidAt, p.Notes, p.RecordedBy,
	).Scan(&id)
	return id, err
}

// Delete removes a payment.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SumByOrder returns the total paid against an order.
func (r *repository) SumByOrder(ctx context.Context, orderID int64) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1`, orderID,
	).Scan(&sum)
	return sum, err
}

// CollectedBetween returns the total collected in a paid_at range.
func (r *repository) CollectedBetween(ctx context.Context, from, to time.Time) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= $1 AND paid_at <= $2`, from, to,
	).Scan(&sum)
	return sum, err
}
