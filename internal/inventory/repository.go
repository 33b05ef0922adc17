package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keystone-crm/keystone-crm/internal/platform/db"
)

// Repository defines the interface for stock persistence.
type Repository interface {
	ListStock(ctx context.Context, query string) ([]Stock, error)
	GetStock(ctx context.Context, itemName string) (*Stock, error)
	ListMovements(ctx context.Context, itemName string, limit int) ([]Movement, error)

	// Movements post inside a transaction so the balance check and the
	// movement row commit together.
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional stock operations.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, itemName string) (*Stock, error)
	UpsertStock(ctx context.Context, itemName string, quantity float64, uom *string) error
	InsertMovement(ctx context.Context, mv Movement) (int64, error)
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

const stockColumns = `id, item_name, quantity, uom, updated_at`

func scanStock(row pgx.Row, s *Stock) error {
	return row.Scan(&s.ID, &s.ItemName, &s.Quantity, &s.UOM, &s.UpdatedAt)
}

// ListStock returns balances, optionally narrowed by a case-insensitive
// item name match.
func (r *repository) ListStock(ctx context.Context, query string) ([]Stock, error) {
	sql := fmt.Sprintf(`SELECT %s FROM inventory_stock`, stockColumns)
	var args []interface{}
	if query != "" {
		sql += ` WHERE LOWER(item_name) LIKE $1`
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	sql += ` ORDER BY item_name`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Stock
	for rows.Next() {
		var s Stock
		if err := scanStock(rows, &s); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// GetStock returns the balance for one item.
func (r *repository) GetStock(ctx context.Context, itemName string) (*Stock, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_stock WHERE item_name = $1`, stockColumns)
	var s Stock
	if err := scanStock(r.pool.QueryRow(ctx, query, itemName), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListMovements returns recent movements for an item, newest first.
func (r *repository) ListMovements(ctx context.Context, itemName string, limit int) ([]Movement, error) {
	query := `
		SELECT id, item_name, type, quantity, ref, note, actor_id, posted_at
		FROM inventory_movements
		WHERE item_name = $1
		ORDER BY posted_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, itemName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Movement
	for rows.Next() {
		var mv Movement
		err := rows.Scan(&mv.ID, &mv.ItemName, &mv.Type, &mv.Quantity, &mv.Ref, &mv.Note, &mv.ActorID, &mv.PostedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, mv)
	}
	return results, rows.Err()
}

// GetStockForUpdate locks the balance row for the duration of the
// transaction.
func (t *txRepository) GetStockForUpdate(ctx context.Context, itemName string) (*Stock, error) {
	query := fmt.Sprintf(`SELECT %s FROM inventory_stock WHERE item_name = $1 FOR UPDATE`, stockColumns)
	var s Stock
	if err := scanStock(t.tx.QueryRow(ctx, query, itemName), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpsertStock writes the new balance for an item.
func (t *txRepository) UpsertStock(ctx context.Context, itemName string, quantity float64, uom *string) error {
	query := `
		INSERT INTO inventory_stock (item_name, quantity, uom, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (item_name)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              uom = COALESCE(EXCLUDED.uom, inventory_stock.uom),
		              updated_at = NOW()
	`
	_, err := t.tx.Exec(ctx, query, itemName, quantity, uom)
	return err
}

// InsertMovement records a posted movement.
func (t *txRepository) InsertMovement(ctx context.Context, mv Movement) (int64, error) {
	query := `
		INSERT INTO inventory_movements (item_name, type, quantity, ref, note, actor_id, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		mv.ItemName, mv.Type, mv.Quantity, mv.Ref, mv.Note, mv.ActorID, mv.PostedAt,
	).Scan(&id)
	return id, err
}
