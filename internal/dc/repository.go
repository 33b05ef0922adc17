package dc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-crm/keystone-crm/internal/platform/db"
)

// Repository defines the interface for DC order persistence.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByCode(ctx context.Context, dcCode string) (*Order, error)
	GetWithDetails(ctx context.Context, id int64) (*WithDetails, error)
	List(ctx context.Context, req ListRequest) ([]WithDetails, int, error)

	// Write operations run inside a transaction.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (*Order, error)
	CreateOrder(ctx context.Context, order Order) (int64, error)
	InsertLine(ctx context.Context, line Line) (int64, error)
	UpdateOrder(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error
	DeleteLines(ctx context.Context, orderID int64) error
}

// repository implements Repository using pgxpool.
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

const orderColumns = `id, dc_code, school_name, contact_name, contact_mobile, email,
       address, zone, location, school_type, branch_count, priority, lead_status,
       status, estimated_delivery_date, actual_delivery_date, follow_up_date,
       remarks, total_amount, pod_proof_url, created_by, assigned_to, completed_by,
       created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID, &o.DCCode, &o.SchoolName, &o.ContactName, &o.ContactMobile, &o.Email,
		&o.Address, &o.Zone, &o.Location, &o.SchoolType, &o.BranchCount, &o.Priority,
		&o.LeadStatus, &o.Status, &o.EstimatedDeliveryDate, &o.ActualDeliveryDate,
		&o.FollowUpDate, &o.Remarks, &o.TotalAmount, &o.PODProofURL, &o.CreatedBy,
		&o.AssignedTo, &o.CompletedBy, &o.CreatedAt, &o.UpdatedAt,
	)
}

// GetByID retrieves a DC order by ID with its lines.
func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM dc_orders WHERE id = $1`, orderColumns)
	var order Order
	if err := scanOrder(r.pool.QueryRow(ctx, query, id), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := getLines(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

// GetByCode retrieves a DC order by its short code.
func (r *repository) GetByCode(ctx context.Context, dcCode string) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM dc_orders WHERE dc_code = $1`, orderColumns)
	var order Order
	if err := scanOrder(r.pool.QueryRow(ctx, query, dcCode), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := getLines(ctx, r.pool, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

// queryer is the subset of pgxpool.Pool and pgx.Tx that line reads need.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getLines(ctx context.Context, q queryer, orderID int64) ([]Line, error) {
	query := `
		SELECT id, order_id, name, quantity, unit_price, uom, expiry_date, line_order
		FROM dc_order_lines
		WHERE order_id = $1
		ORDER BY line_order, id
	`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		err := rows.Scan(
			&line.ID, &line.OrderID, &line.Name, &line.Quantity,
			&line.UnitPrice, &line.UOM, &line.ExpiryDate, &line.LineOrder,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

const detailJoin = `
	FROM dc_orders o
	INNER JOIN users u_created ON u_created.id = o.created_by
	LEFT JOIN users u_assigned ON u_assigned.id = o.assigned_to
	LEFT JOIN users u_completed ON u_completed.id = o.completed_by
`

func detailSelect() string {
	return fmt.Sprintf(`
		SELECT o.id, o.dc_code, o.school_name, o.contact_name, o.contact_mobile, o.email,
		       o.address, o.zone, o.location, o.school_type, o.branch_count, o.priority,
		       o.lead_status, o.status, o.estimated_delivery_date, o.actual_delivery_date,
		       o.follow_up_date, o.remarks, o.total_amount, o.pod_proof_url, o.created_by,
		       o.assigned_to, o.completed_by, o.created_at, o.updated_at,
		       u_created.name AS created_by_name,
		       u_assigned.name AS assigned_to_name,
		       u_completed.name AS completed_by_name
		%s`, detailJoin)
}

func scanDetails(row pgx.Row, wd *WithDetails) error {
	return row.Scan(
		&wd.ID, &wd.DCCode, &wd.SchoolName, &wd.ContactName, &wd.ContactMobile, &wd.Email,
		&wd.Address, &wd.Zone, &wd.Location, &wd.SchoolType, &wd.BranchCount, &wd.Priority,
		&wd.LeadStatus, &wd.Status, &wd.EstimatedDeliveryDate, &wd.ActualDeliveryDate,
		&wd.FollowUpDate, &wd.Remarks, &wd.TotalAmount, &wd.PODProofURL, &wd.CreatedBy,
		&wd.AssignedTo, &wd.CompletedBy, &wd.CreatedAt, &wd.UpdatedAt,
		&wd.CreatedByName, &wd.AssignedToName, &wd.CompletedByName,
	)
}

// GetWithDetails retrieves a DC order with creator and assignee resolved.
func (r *repository) GetWithDetails(ctx context.Context, id int64) (*WithDetails, error) {
	query := detailSelect() + ` WHERE o.id = $1`
	var wd WithDetails
	if err := scanDetails(r.pool.QueryRow(ctx, query, id), &wd); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := getLines(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	wd.Lines = lines

	return &wd, nil
}

// List retrieves DC orders matching the typed filter set, newest first.
func (r *repository) List(ctx context.Context, req ListRequest) ([]WithDetails, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	if req.Zone != nil {
		conditions = append(conditions, fmt.Sprintf("o.zone = $%d", argPos))
		args = append(args, *req.Zone)
		argPos++
	}

	if req.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.assigned_to = $%d", argPos))
		args = append(args, *req.AssignedTo)
		argPos++
	}

	if req.LeadStatus != nil {
		conditions = append(conditions, fmt.Sprintf("o.lead_status = $%d", argPos))
		args = append(args, *req.LeadStatus)
		argPos++
	}

	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}

	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_at <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	if req.Query != nil && *req.Query != "" {
		pattern := "%" + strings.ToLower(*req.Query) + "%"
		fields := []string{"o.dc_code", "o.school_name", "o.contact_name", "o.contact_mobile", "o.zone", "o.location", "o.email"}
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

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM dc_orders o %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s %s ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d`,
		detailSelect(), whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []WithDetails
	for rows.Next() {
		var wd WithDetails
		if err := scanDetails(rows, &wd); err != nil {
			return nil, 0, err
		}
		results = append(results, wd)
	}

	return results, total, rows.Err()
}

// GetForUpdate reads the order inside the transaction with a row lock,
// so concurrent transitions on the same order serialise.
func (t *txRepository) GetForUpdate(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM dc_orders WHERE id = $1 FOR UPDATE`, orderColumns)
	var order Order
	if err := scanOrder(t.tx.QueryRow(ctx, query, id), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := getLines(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

// CreateOrder inserts the order row and returns its ID.
func (t *txRepository) CreateOrder(ctx context.Context, order Order) (int64, error) {
	query := `
		INSERT INTO dc_orders (
			dc_code, school_name, contact_name, contact_mobile, email, address,
			zone, location, school_type, branch_count, priority, lead_status,
			status, estimated_delivery_date, follow_up_date, remarks,
			total_amount, created_by, assigned_to, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, NOW(), NOW()
		) RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		order.DCCode, order.SchoolName, order.ContactName, order.ContactMobile,
		order.Email, order.Address, order.Zone, order.Location, order.SchoolType,
		order.BranchCount, order.Priority, order.LeadStatus, order.Status,
		order.EstimatedDeliveryDate, order.FollowUpDate, order.Remarks,
		order.TotalAmount, order.CreatedBy, order.AssignedTo,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

// InsertLine inserts a line item.
func (t *txRepository) InsertLine(ctx context.Context, line Line) (int64, error) {
	query := `
		INSERT INTO dc_order_lines (order_id, name, quantity, unit_price, uom, expiry_date, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		line.OrderID, line.Name, line.Quantity, line.UnitPrice,
		line.UOM, line.ExpiryDate, line.LineOrder,
	).Scan(&id)
	return id, err
}

// UpdateOrder applies a column-value merge; dc_code, status and created_by
// are rejected to keep immutability and lifecycle governance in one place.
func (t *txRepository) UpdateOrder(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	for _, guarded := range []string{"dc_code", "status", "created_by"} {
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

	query := fmt.Sprintf(`UPDATE dc_orders SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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

// UpdateStatus sets the lifecycle stage plus any accompanying columns.
// Legality of the edge is the service's responsibility.
func (t *txRepository) UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]interface{}) error {
	setClauses := []string{"status = $1", "updated_at = NOW()"}
	args := []interface{}{status}
	argPos := 2
	for col, val := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argPos))
		args = append(args, val)
		argPos++
	}

	query := fmt.Sprintf(`UPDATE dc_orders SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), argPos)
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

// DeleteLines removes all line items of an order.
func (t *txRepository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM dc_order_lines WHERE order_id = $1`, orderID)
	return err
}
