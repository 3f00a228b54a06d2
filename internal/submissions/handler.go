package submissions

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dialadrink/ledger/internal/platform/httpx"
)

// Handler exposes the submission workflow over HTTP. Actor identity comes
// from the request body; authentication lives outside this service.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the submission handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches submission endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/drivers/{driverID}/submissions", h.CreateForDriver)
	r.Get("/drivers/{driverID}/submissions", h.ListForDriver)
	r.Post("/admin-submissions", h.CreateForAdmin)
	r.Get("/submissions/{id}", h.Get)
	r.Patch("/submissions/{id}", h.Amend)
	r.Post("/submissions/{id}/approve", h.Approve)
	r.Post("/submissions/{id}/reject", h.Reject)
}

// CreateForDriver handles POST /drivers/{driverID}/submissions.
func (h *Handler) CreateForDriver(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return
	}

	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	req.DriverID = &driverID
	req.AdminID = nil
	h.create(w, r, req)
}

// CreateForAdmin handles POST /admin-submissions (walk-in sales and other
// admin-originated transactions).
func (h *Handler) CreateForAdmin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCreate(w, r)
	if !ok {
		return
	}
	req.DriverID = nil
	h.create(w, r, req)
}

func (h *Handler) decodeCreate(w http.ResponseWriter, r *http.Request) (CreateSubmissionRequest, bool) {
	var req CreateSubmissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, req CreateSubmissionRequest) {
	sub, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidType) || errors.Is(err, ErrInvalidDetails) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("create submission", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sub)
}

// Get handles GET /submissions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

// ListForDriver handles GET /drivers/{driverID}/submissions.
func (h *Handler) ListForDriver(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return
	}

	req := ListSubmissionsRequest{DriverID: driverID}
	if status := r.URL.Query().Get("status"); status != "" {
		s := SubmissionStatus(status)
		if s != StatusPending && s != StatusApproved && s != StatusRejected {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status filter")
			return
		}
		req.Status = &s
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		req.Limit, _ = strconv.Atoi(limit)
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		req.Offset, _ = strconv.Atoi(offset)
	}

	subs, counts, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list submissions", slog.Int64("driver_id", driverID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"counts":      counts,
	})
}

// Amend handles PATCH /submissions/{id}.
func (h *Handler) Amend(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req AmendSubmissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}

	sub, err := h.service.Amend(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

// Approve handles POST /submissions/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sub, result, err := h.service.Approve(r.Context(), id, req.ApprovedBy)
	if err != nil {
		h.logger.Warn("approve submission", slog.Int64("submission_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"submission":   sub,
		"amortization": result,
	})
}

// Reject handles POST /submissions/{id}/reject.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req RejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sub, err := h.service.Reject(r.Context(), id, req.RejectedBy, req.Reason)
	if err != nil {
		h.logger.Warn("reject submission", slog.Int64("submission_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sub)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid submission id")
		return 0, false
	}
	return id, true
}
