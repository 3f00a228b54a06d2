package submissions

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CreateSubmissionRequest carries a driver- or admin-originated submission.
// Exactly one of DriverID/AdminID must be set; the service enforces it.
type CreateSubmissionRequest struct {
	DriverID       *int64          `json:"driver_id,omitempty"`
	AdminID        *int64          `json:"admin_id,omitempty"`
	SubmissionType SubmissionType  `json:"submission_type" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Details        json.RawMessage `json:"details,omitempty"`
	OrderIDs       []int64         `json:"order_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

// AmendSubmissionRequest updates a still-pending submission.
type AmendSubmissionRequest struct {
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Details json.RawMessage  `json:"details,omitempty"`
}

// ApproveRequest identifies the approving admin.
type ApproveRequest struct {
	ApprovedBy int64 `json:"approved_by" validate:"required,gt=0"`
}

// RejectRequest identifies the rejecting admin and the mandatory reason.
type RejectRequest struct {
	RejectedBy int64  `json:"rejected_by" validate:"required,gt=0"`
	Reason     string `json:"reason"`
}

// ListSubmissionsRequest filters a driver's submissions.
type ListSubmissionsRequest struct {
	DriverID int64
	Status   *SubmissionStatus
	Limit    int
	Offset   int
}
