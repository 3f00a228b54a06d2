package penalties

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dialadrink/ledger/internal/platform/httpx"
)

// Handler exposes penalty issuance and listing.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the penalty handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches penalty endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/drivers/{driverID}/penalties", h.Create)
	r.Get("/drivers/{driverID}/penalties", h.List)
}

// Create handles POST /drivers/{driverID}/penalties.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return
	}

	var req CreatePenaltyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	p, err := h.service.Create(r.Context(), driverID, req)
	if err != nil {
		h.logger.Error("create penalty", slog.Int64("driver_id", driverID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// List handles GET /drivers/{driverID}/penalties.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	driverID, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return
	}

	sum, err := h.service.ListByDriver(r.Context(), driverID)
	if err != nil {
		h.logger.Error("list penalties", slog.Int64("driver_id", driverID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}
