package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the interface for lead persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Lead, error)
	List(ctx context.Context, req ListRequest) ([]Lead, int, error)
	DueForFollowUp(ctx context.Context, req DueRequest) ([]Lead, error)
	Create(ctx context.Context, lead Lead) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

// DueRequest selects leads whose follow-up is due on or before a cutoff.
type DueRequest struct {
	Cutoff time.Time
	Limit  int
}

// repository implements Repository using pgxpool.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const leadColumns = `id, school_name, contact_name, contact_mobile, email, zone,
       location, status, follow_up_date, notes, order_id, created_by,
       assigned_to, created_at, updated_at`

func scanLead(row pgx.Row, l *Lead) error {
	return row.Scan(
		&l.ID, &l.SchoolName, &l.ContactName, &l.ContactMobile, &l.Email, &l.Zone,
		&l.Location, &l.Status, &l.FollowUpDate, &l.Notes, &l.OrderID, &l.CreatedBy,
		&l.AssignedTo, &l.CreatedAt, &l.UpdatedAt,
	)
}

// GetByID retrieves a lead by ID.
func (r *repository) GetByID(ctx context.Context, id int64) (*Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns)
	var lead Lead
	if err := scanLead(r.pool.QueryRow(ctx, query, id), &lead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// List retrieves leads matching the typed filter set, newest first.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Lead, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	if req.Zone != nil {
		conditions = append(conditions, fmt.Sprintf("zone = $%d", argPos))
		args = append(args, *req.Zone)
		argPos++
	}

	if req.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argPos))
		args = append(args, *req.AssignedTo)
		argPos++
	}

	if req.DueBefore != nil {
		conditions = append(conditions, fmt.Sprintf("follow_up_date <= $%d", argPos))
		args = append(args, *req.DueBefore)
		argPos++
	}

	if req.Query != nil && *req.Query != "" {
		pattern := "%" + strings.ToLower(*req.Query) + "%"
		fields := []string{"school_name", "contact_name", "contact_mobile", "zone", "location", "email"}
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE $%d", f, argPos))
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
		args = append(args, pattern)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM leads %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		leadColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []Lead
	for rows.Next() {
		var lead Lead
		if err := scanLead(rows, &lead); err != nil {
			return nil, 0, err
		}
		results = append(results, lead)
	}

	return results, total, rows.Err()
}

// DueForFollowUp retrieves unconverted leads whose follow-up date has
// arrived, oldest first. Used by the reminder scan job.
func (r *repository) DueForFollowUp(ctx context.Context, req DueRequest) ([]Lead, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE follow_up_date IS NOT NULL
		  AND follow_up_date <= $1
		  AND order_id IS NULL
		ORDER BY follow_up_date ASC
		LIMIT $2
	`, leadColumns)

	rows, err := r.pool.Query(ctx, query, req.Cutoff, req.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Lead
	for rows.Next() {
		var lead Lead
		if err := scanLead(rows, &lead); err != nil {
			return nil, err
		}
		results = append(results, lead)
	}

	return results, rows.Err()
}

// Create inserts the lead row and returns its ID.
func (r *repository) Create(ctx context.Context, lead Lead) (int64, error) {
	query := `
		INSERT INTO leads (
			school_name, contact_name, contact_mobile, email, zone, location,
			status, follow_up_date, notes, created_by, assigned_to,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		lead.SchoolName, lead.ContactName, lead.ContactMobile, lead.Email,
		lead.Zone, lead.Location, lead.Status, lead.FollowUpDate, lead.Notes,
		lead.CreatedBy, lead.AssignedTo,
	).Scan(&id)
	return id, err
}

// Update applies a column-value merge. created_by is rejected so the
// creator stays immutable.
func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["created_by"]; ok {
		return fmt.Errorf("column created_by is not updatable")
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

	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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

// Delete removes a lead.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
