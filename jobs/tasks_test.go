package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestFormatKES(t *testing.T) {
	require.Equal(t, "KES 12,500.00", formatKES("12500"))
	require.Equal(t, "KES 0.50", formatKES("0.5"))
	require.Equal(t, "KES not-a-number", formatKES("not-a-number"))
}

func TestNewTaskFillsEventID(t *testing.T) {
	task, err := NewSubmissionApprovedTask(SubmissionApprovedPayload{SubmissionID: 1, Amount: "500", Type: "cash"})
	require.NoError(t, err)
	require.Equal(t, TaskSubmissionApproved, task.Type())

	var p SubmissionApprovedPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.NotEmpty(t, p.EventID)
}

func TestHandlersSkipRetryOnBadPayload(t *testing.T) {
	handlers := NotificationHandlers(slog.Default())
	for taskType, handler := range handlers {
		err := handler(context.Background(), asynq.NewTask(taskType, []byte("{not json")))
		require.ErrorIs(t, err, asynq.SkipRetry, taskType)
	}
}

func TestHandlersAcceptWellFormedPayloads(t *testing.T) {
	handlers := NotificationHandlers(slog.Default())

	task, err := NewPenaltyCreatedTask(PenaltyCreatedPayload{PenaltyID: 3, DriverID: 7, Amount: "800", Reason: "breakage"})
	require.NoError(t, err)
	require.NoError(t, handlers[TaskPenaltyCreated](context.Background(), task))
}
