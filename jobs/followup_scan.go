package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/keystone-crm/keystone-crm/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// EmailEnqueuer submits reminder emails to the queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// FollowUpScanJob finds DC orders and leads whose follow-up date has
// arrived and enqueues a reminder email to the responsible user.
type FollowUpScanJob struct {
	Pool    *pgxpool.Pool
	Mailer  EmailEnqueuer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewFollowUpScanJob wires dependencies for the scan handler.
func NewFollowUpScanJob(pool *pgxpool.Pool, mailer EmailEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics) *FollowUpScanJob {
	return &FollowUpScanJob{
		Pool:    pool,
		Mailer:  mailer,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type reminder struct {
	Source     string
	Ref        string
	SchoolName string
	Email      string
	DueOn      time.Time
}

// Handle executes the follow-up scan.
func (j *FollowUpScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("followup scan: handler not configured")
	}
	var payload FollowUpScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = 200
	}

	tracker := j.metrics().Track(TaskFollowUpScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("limit", payload.Limit))
	logger.Info("starting followup scan")

	now := j.now()
	reminders, err := j.fetchDue(ctx, now, payload.Limit)
	if err != nil {
		resultErr = err
		logger.Error("load due followups", slog.Any("error", err))
		return resultErr
	}
	if len(reminders) == 0 {
		logger.Info("no followups due")
		return resultErr
	}

	sent := map[string]int{}
	for _, rem := range reminders {
		if rem.Email == "" {
			continue
		}
		_, err := j.Mailer.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      rem.Email,
			Subject: fmt.Sprintf("Follow up due: %s", rem.SchoolName),
			Body: fmt.Sprintf("A follow-up for %s (%s) was due on %s.",
				rem.SchoolName, rem.Ref, rem.DueOn.Format("2006-01-02")),
		})
		if err != nil {
			resultErr = err
			logger.Error("enqueue reminder", slog.String("ref", rem.Ref), slog.Any("error", err))
			return resultErr
		}
		sent[rem.Source]++
	}

	for source, n := range sent {
		j.metrics().AddReminders(source, n)
	}
	logger.Info("completed followup scan",
		slog.Int("orders", sent["dc_order"]),
		slog.Int("leads", sent["lead"]))
	return resultErr
}

// fetchDue pulls open orders and unconverted leads with a due follow-up,
// joined to the responsible user's email. Orders fall back to the
// creator when unassigned.
func (j *FollowUpScanJob) fetchDue(ctx context.Context, now time.Time, limit int) ([]reminder, error) {
	if j.Pool == nil {
		return nil, errors.New("followup scan: pool not configured")
	}

	query := `
		SELECT 'dc_order' AS source, o.dc_code AS ref, o.school_name,
		       COALESCE(u_assigned.email, u_created.email, '') AS email,
		       o.follow_up_date
		FROM dc_orders o
		JOIN users u_created ON u_created.id = o.created_by
		LEFT JOIN users u_assigned ON u_assigned.id = o.assigned_to
		WHERE o.follow_up_date IS NOT NULL
		  AND o.follow_up_date <= $1
		  AND o.status NOT IN ('completed')
		UNION ALL
		SELECT 'lead' AS source, 'LEAD-' || l.id AS ref, l.school_name,
		       COALESCE(u_assigned.email, u_created.email, '') AS email,
		       l.follow_up_date
		FROM leads l
		JOIN users u_created ON u_created.id = l.created_by
		LEFT JOIN users u_assigned ON u_assigned.id = l.assigned_to
		WHERE l.follow_up_date IS NOT NULL
		  AND l.follow_up_date <= $1
		  AND l.order_id IS NULL
		ORDER BY follow_up_date
		LIMIT $2
	`
	rows, err := j.Pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []reminder
	for rows.Next() {
		var rem reminder
		if err := rows.Scan(&rem.Source, &rem.Ref, &rem.SchoolName, &rem.Email, &rem.DueOn); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func (j *FollowUpScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFollowUpScan))
	}
	return slog.Default().With(slog.String("job", TaskFollowUpScan))
}

func (j *FollowUpScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *FollowUpScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
