package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-crm/keystone-crm/internal/dc"
)

// Repository runs the aggregate queries the dashboard fans out to.
type Repository interface {
	CountOrdersByStatus(ctx context.Context) (map[dc.Status]int, error)
	CountLeadsByStatus(ctx context.Context) (map[dc.Grade]int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// CountOrdersByStatus groups DC orders by lifecycle stage.
func (r *repository) CountOrdersByStatus(ctx context.Context) (map[dc.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM dc_orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[dc.Status]int)
	for rows.Next() {
		var status dc.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountLeadsByStatus groups open leads by grade.
func (r *repository) CountLeadsByStatus(ctx context.Context) (map[dc.Grade]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[dc.Grade]int)
	for rows.Next() {
		var grade dc.Grade
		var n int
		if err := rows.Scan(&grade, &n); err != nil {
			return nil, err
		}
		counts[grade] = n
	}
	return counts, rows.Err()
}
