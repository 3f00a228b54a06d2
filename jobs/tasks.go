package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSubmissionApproved notifies a driver their submission was approved.
	TaskSubmissionApproved = "notify:submission_approved"
	// TaskSubmissionRejected notifies a driver their submission was rejected.
	TaskSubmissionRejected = "notify:submission_rejected"
	// TaskPenaltyCreated notifies a driver a penalty was issued against them.
	TaskPenaltyCreated = "notify:penalty_created"
)

// SubmissionApprovedPayload carries a submission approval event.
type SubmissionApprovedPayload struct {
	EventID      string `json:"event_id"`
	SubmissionID int64  `json:"submission_id"`
	DriverID     *int64 `json:"driver_id,omitempty"`
	Amount       string `json:"amount"`
	Type         string `json:"type"`
}

// SubmissionRejectedPayload carries a submission rejection event.
type SubmissionRejectedPayload struct {
	EventID      string `json:"event_id"`
	SubmissionID int64  `json:"submission_id"`
	DriverID     *int64 `json:"driver_id,omitempty"`
	Amount       string `json:"amount"`
	Reason       string `json:"reason"`
}

// PenaltyCreatedPayload carries a penalty issuance event.
type PenaltyCreatedPayload struct {
	EventID   string `json:"event_id"`
	PenaltyID int64  `json:"penalty_id"`
	DriverID  int64  `json:"driver_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
}

// NewSubmissionApprovedTask constructs an approval notification task.
func NewSubmissionApprovedTask(payload SubmissionApprovedPayload) (*asynq.Task, error) {
	if payload.EventID == "" {
		payload.EventID = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubmissionApproved, data), nil
}

// NewSubmissionRejectedTask constructs a rejection notification task.
func NewSubmissionRejectedTask(payload SubmissionRejectedPayload) (*asynq.Task, error) {
	if payload.EventID == "" {
		payload.EventID = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSubmissionRejected, data), nil
}

// NewPenaltyCreatedTask constructs a penalty notification task.
func NewPenaltyCreatedTask(payload PenaltyCreatedPayload) (*asynq.Task, error) {
	if payload.EventID == "" {
		payload.EventID = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPenaltyCreated, data), nil
}

// kesPrinter renders amounts with thousand separators for SMS copy.
var kesPrinter = message.NewPrinter(language.English)

func formatKES(amount string) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return "KES " + amount
	}
	f, _ := d.Float64()
	return kesPrinter.Sprintf("KES %.2f", f)
}

// NotificationHandlers returns the handlers for the notification task types.
// Delivery is a log line for now; the SMS gateway integration replaces the
// body without touching the task contract.
func NotificationHandlers(logger *slog.Logger) map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		TaskSubmissionApproved: func(ctx context.Context, t *asynq.Task) error {
			var p SubmissionApprovedPayload
			if err := json.Unmarshal(t.Payload(), &p); err != nil {
				return asynq.SkipRetry
			}
			logger.Info("submission approved notification",
				slog.String("event_id", p.EventID),
				slog.Int64("submission_id", p.SubmissionID),
				slog.String("type", p.Type),
				slog.String("amount", formatKES(p.Amount)))
			return nil
		},
		TaskSubmissionRejected: func(ctx context.Context, t *asynq.Task) error {
			var p SubmissionRejectedPayload
			if err := json.Unmarshal(t.Payload(), &p); err != nil {
				return asynq.SkipRetry
			}
			logger.Info("submission rejected notification",
				slog.String("event_id", p.EventID),
				slog.Int64("submission_id", p.SubmissionID),
				slog.String("amount", formatKES(p.Amount)),
				slog.String("reason", p.Reason))
			return nil
		},
		TaskPenaltyCreated: func(ctx context.Context, t *asynq.Task) error {
			var p PenaltyCreatedPayload
			if err := json.Unmarshal(t.Payload(), &p); err != nil {
				return asynq.SkipRetry
			}
			logger.Info("penalty created notification",
				slog.String("event_id", p.EventID),
				slog.Int64("penalty_id", p.PenaltyID),
				slog.Int64("driver_id", p.DriverID),
				slog.String("amount", formatKES(p.Amount)),
				slog.String("reason", p.Reason))
			return nil
		},
	}
}
