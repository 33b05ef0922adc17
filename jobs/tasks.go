package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskFollowUpScan is the daily scan for due follow-ups.
	TaskFollowUpScan = "crm:followup_scan"
	// TaskReportWarmup pre-populates the dashboard cache.
	TaskReportWarmup = "reports:warmup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery is handled by the mail relay sidecar.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// FollowUpScanPayload bounds one scan run.
type FollowUpScanPayload struct {
	Limit int `json:"limit"`
}

// NewFollowUpScanTask constructs the scan task.
func NewFollowUpScanTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(FollowUpScanPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpScan, data), nil
}

// ReportWarmupPayload selects the window the warmup builds.
type ReportWarmupPayload struct {
	WindowDays int `json:"window_days"`
}

// NewReportWarmupTask constructs the warmup task.
func NewReportWarmupTask(windowDays int) (*asynq.Task, error) {
	data, err := json.Marshal(ReportWarmupPayload{WindowDays: windowDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
