package expenses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-crm/keystone-crm/internal/platform/db"
)

// Repository defines the interface for expense persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Expense, error)
	List(ctx context.Context, req ListRequest) ([]Expense, int, error)
	TotalsByStage(ctx context.Context) (map[Stage]float64, error)
	Create(ctx context.Context, e Expense) (int64, error)

	// Stage changes run inside a transaction so a batch settles
	// atomically.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional expense operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Expense, error)
	UpdateStage(ctx context.Context, id int64, stage Stage, updates map[string]interface{}) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const expenseColumns = `id, category, description, amount, incurred_at, receipt_url,
       stage, notes, submitted_by, reviewed_by, settled_by, reviewed_at,
       settled_at, created_at, updated_at`

func scanExpense(row pgx.Row, e *Expense) error {
	return row.Scan(
		&e.ID, &e.Category, &e.Description, &e.Amount, &e.IncurredAt, &e.ReceiptURL,
		&e.Stage, &e.Notes, &e.SubmittedBy, &e.ReviewedBy, &e.SettledBy, &e.ReviewedAt,
		&e.SettledAt, &e.CreatedAt, &e.UpdatedAt,
	)
}

// GetByID retrieves an expense by ID.
func (r *repository) GetByID(ctx context.Context, id int64) (*Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE id = $1`, expenseColumns)
	var e Expense
	if err := scanExpense(r.pool.QueryRow(ctx, query, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List retrieves expenses matching the typed filter set, newest first.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Expense, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Stage != nil {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argPos))
		args = append(args, *req.Stage)
		argPos++
	}
	if req.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, *req.Category)
		argPos++
	}
	if req.SubmittedBy != nil {
		conditions = append(conditions, fmt.Sprintf("submitted_by = $%d", argPos))
		args = append(args, *req.SubmittedBy)
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("incurred_at >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("incurred_at <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM expenses %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM expenses %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		expenseColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []Expense
	for rows.Next() {
		var e Expense
		if err := scanExpense(rows, &e); err != nil {
			return nil, 0, err
		}
		results = append(results, e)
	}
	return results, total, rows.Err()
}

// TotalsByStage sums amounts per approval stage.
func (r *repository) TotalsByStage(ctx context.Context) (map[Stage]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT stage, COALESCE(SUM(amount), 0) FROM expenses GROUP BY stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[Stage]float64)
	for rows.Next() {
		var stage Stage
		var sum float64
		if err := rows.Scan(&stage, &sum); err != nil {
			return nil, err
		}
		totals[stage] = sum
	}
	return totals, rows.Err()
}

// Create inserts the expense row and returns its ID.
func (r *repository) Create(ctx context.Context, e Expense) (int64, error) {
	query := `
		INSERT INTO expenses (
			category, description, amount, incurred_at, receipt_url,
			stage, notes, submitted_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		e.Category, e.Description, e.Amount, e.IncurredAt, e.ReceiptURL,
		e.Stage, e.Notes, e.SubmittedBy,
	).Scan(&id)
	return id, err
}

// GetForUpdate locks the expense row for the duration of the transaction.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE id = $1 FOR UPDATE`, expenseColumns)
	var e Expense
	if err := scanExpense(t.tx.QueryRow(ctx, query, id), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// UpdateStage sets the approval stage plus any accompanying columns.
// Legality of the edge is the service's responsibility.
func (t *txRepository) UpdateStage(ctx context.Context, id int64, stage Stage, updates map[string]interface{}) error {
	setClauses := []string{"stage = $1", "updated_at = NOW()"}
	args := []interface{}{stage}
	argPos := 2
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}

	query := fmt.Sprintf(`UPDATE expenses SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
	args = append(args, id)

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRequest is the typed filter set for listing expenses.
type ListRequest struct {
	Stage       *Stage
	Category    *string
	SubmittedBy *int64
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
