package drivers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dialadrink/ledger/internal/platform/httpx"
)

// Handler exposes driver identity and savings endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the driver handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches driver endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/drivers/{driverID}", h.Get)
	r.Post("/drivers/{driverID}/savings/withhold", h.Withhold)
	r.Post("/drivers/{driverID}/savings/payout", h.Payout)
	r.Get("/drivers/{driverID}/savings", h.SavingsHistory)
}

// Get handles GET /drivers/{driverID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.parseDriverID(w, r)
	if !ok {
		return
	}
	d, wallet, err := h.service.Get(r.Context(), driverID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"driver": d,
		"wallet": wallet,
	})
}

// Withhold handles POST /drivers/{driverID}/savings/withhold.
func (h *Handler) Withhold(w http.ResponseWriter, r *http.Request) {
	h.moveSavings(w, r, h.service.WithholdSavings)
}

// Payout handles POST /drivers/{driverID}/savings/payout.
func (h *Handler) Payout(w http.ResponseWriter, r *http.Request) {
	h.moveSavings(w, r, h.service.PayoutSavings)
}

// SavingsHistory handles GET /drivers/{driverID}/savings.
func (h *Handler) SavingsHistory(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.parseDriverID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.SavingsHistory(r.Context(), driverID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) moveSavings(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, driverID int64, req SavingsRequest) (DriverWallet, error)) {
	driverID, ok := h.parseDriverID(w, r)
	if !ok {
		return
	}

	var req SavingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	wallet, err := move(r.Context(), driverID, req)
	if err != nil {
		if errors.Is(err, ErrInsufficientSavings) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Warn("move savings", slog.Int64("driver_id", driverID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wallet)
}

func (h *Handler) parseDriverID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return 0, false
	}
	return id, true
}
