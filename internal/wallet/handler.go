package wallet

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dialadrink/ledger/internal/platform/httpx"
)

// Handler exposes derived balances and the credit gate.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the wallet handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches wallet endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/drivers/{driverID}/balance", h.Statement)
	r.Get("/drivers/{driverID}/can-accept-delivery", h.CanAcceptDelivery)
	r.Get("/office/balance", h.Office)
}

// Statement handles GET /drivers/{driverID}/balance.
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.parseDriverID(w, r)
	if !ok {
		return
	}
	st, err := h.service.Statement(r.Context(), driverID)
	if err != nil {
		h.logger.Error("compute statement", slog.Int64("driver_id", driverID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

// CanAcceptDelivery handles GET /drivers/{driverID}/can-accept-delivery.
func (h *Handler) CanAcceptDelivery(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.parseDriverID(w, r)
	if !ok {
		return
	}
	decision, err := h.service.CanAcceptDelivery(r.Context(), driverID)
	if err != nil {
		h.logger.Error("credit gate", slog.Int64("driver_id", driverID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, decision)
}

// Office handles GET /office/balance.
func (h *Handler) Office(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.Office(r.Context())
	if err != nil {
		h.logger.Error("office balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) parseDriverID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "driverID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid driver id")
		return 0, false
	}
	return id, true
}
