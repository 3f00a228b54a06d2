package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Dispatcher enqueues notification tasks after financial events commit. It
// satisfies the Events interfaces of the submissions and penalties services.
// Enqueue failures are logged and swallowed: a lost notification never rolls
// back a committed ledger write.
type Dispatcher struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewDispatcher constructs a dispatcher over an asynq client.
func NewDispatcher(client *asynq.Client, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// SubmissionApproved enqueues an approval notification.
func (d *Dispatcher) SubmissionApproved(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, submissionType string) {
	task, err := NewSubmissionApprovedTask(SubmissionApprovedPayload{
		SubmissionID: submissionID,
		DriverID:     driverID,
		Amount:       amount.String(),
		Type:         submissionType,
	})
	if err != nil {
		d.logger.Error("build approval task", slog.Any("error", err))
		return
	}
	d.enqueue(ctx, task)
}

// SubmissionRejected enqueues a rejection notification.
func (d *Dispatcher) SubmissionRejected(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, reason string) {
	task, err := NewSubmissionRejectedTask(SubmissionRejectedPayload{
		SubmissionID: submissionID,
		DriverID:     driverID,
		Amount:       amount.String(),
		Reason:       reason,
	})
	if err != nil {
		d.logger.Error("build rejection task", slog.Any("error", err))
		return
	}
	d.enqueue(ctx, task)
}

// PenaltyCreated enqueues a penalty notification.
func (d *Dispatcher) PenaltyCreated(ctx context.Context, penaltyID, driverID int64, amount decimal.Decimal, reason string) {
	task, err := NewPenaltyCreatedTask(PenaltyCreatedPayload{
		PenaltyID: penaltyID,
		DriverID:  driverID,
		Amount:    amount.String(),
		Reason:    reason,
	})
	if err != nil {
		d.logger.Error("build penalty task", slog.Any("error", err))
		return
	}
	d.enqueue(ctx, task)
}

func (d *Dispatcher) enqueue(ctx context.Context, task *asynq.Task) {
	if d.client == nil {
		return
	}
	if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		d.logger.Error("enqueue task", slog.String("type", task.Type()), slog.Any("error", err))
	}
}
