package training

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the interface for session persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Session, error)
	List(ctx context.Context, req ListRequest) ([]Session, int, error)
	Create(ctx context.Context, s Session) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
}

// ListRequest is the typed filter set for listing sessions.
type ListRequest struct {
	Status    *Status
	TrainerID *int64
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sessionColumns = `id, school_name, trainer_id, topic, scheduled_at, status,
       notes, order_id, created_by, created_at, updated_at`

func scanSession(row pgx.Row, s *Session) error {
	return row.Scan(
		&s.ID, &s.SchoolName, &s.TrainerID, &s.Topic, &s.ScheduledAt, &s.Status,
		&s.Notes, &s.OrderID, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
}

// GetByID retrieves a session by ID.
func (r *repository) GetByID(ctx context.Context, id int64) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_sessions WHERE id = $1`, sessionColumns)
	var s Session
	if err := scanSession(r.pool.QueryRow(ctx, query, id), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List retrieves sessions matching the typed filter set, soonest first.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Session, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.TrainerID != nil {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", argPos))
		args = append(args, *req.TrainerID)
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM training_sessions %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM training_sessions %s ORDER BY scheduled_at, id LIMIT $%d OFFSET $%d`,
		sessionColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []Session
	for rows.Next() {
		var s Session
		if err := scanSession(rows, &s); err != nil {
			return nil, 0, err
		}
		results = append(results, s)
	}
	return results, total, rows.Err()
}

// Create inserts the session row and returns its ID.
func (r *repository) Create(ctx context.Context, s Session) (int64, error) {
	query := `
		INSERT INTO training_sessions (
			school_name, trainer_id, topic, scheduled_at, status, notes,
			order_id, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		s.SchoolName, s.TrainerID, s.Topic, s.ScheduledAt, s.Status, s.Notes,
		s.OrderID, s.CreatedBy,
	).Scan(&id)
	return id, err
}

// Update applies a column-value merge; status and created_by are
// rejected so lifecycle and ownership stay governed.
func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	for _, guarded := range []string{"status", "created_by"} {
		if _, ok := updates[guarded]; ok {
			return fmt.Errorf("column %s is not updatable", guarded)
		}
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+1)
	argPos := 1
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE training_sessions SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the lifecycle stage plus any accompanying columns.
func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	setClauses := []string{"status = $1", "updated_at = NOW()"}
	args := []interface{}{status}
	argPos := 2
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}

	query := fmt.Sprintf(`UPDATE training_sessions SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
