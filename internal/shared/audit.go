package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog is one row in audit_logs: who did what to which record.
// EntityID is a string so both numeric ids and DC codes fit.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

var errAuditIncomplete = errors.New("audit log requires action, entity and entity id")

// AuditLogger appends to the audit_logs table. Writes are best-effort
// at call sites; a failed audit insert never rolls back the operation
// it describes.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry. A zero At is stamped server-side.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errAuditIncomplete
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}

	meta := []byte("{}")
	if len(log.Meta) > 0 {
		encoded, err := json.Marshal(log.Meta)
		if err != nil {
			return err
		}
		meta = encoded
	}

	const insert = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
                VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := l.pool.Exec(ctx, insert, log.ActorID, log.Action, log.Entity, log.EntityID, meta, log.At)
	return err
}
