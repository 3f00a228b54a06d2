package suppliers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dialadrink/ledger/internal/platform/httpx"
)

// Handler exposes the supplier ledger over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the supplier handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches supplier endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/suppliers/{supplierID}/transactions", h.Record)
	r.Get("/suppliers/{supplierID}/transactions", h.List)
	r.Get("/suppliers/{supplierID}/balance", h.Balance)
}

// Record handles POST /suppliers/{supplierID}/transactions.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.parseSupplierID(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tx, err := h.service.Record(r.Context(), supplierID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidTransactionType) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Warn("record supplier transaction", slog.Int64("supplier_id", supplierID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tx)
}

// List handles GET /suppliers/{supplierID}/transactions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.parseSupplierID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	reference := r.URL.Query().Get("reference")

	txs, err := h.service.List(r.Context(), supplierID, reference, limit, offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

// Balance handles GET /suppliers/{supplierID}/balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := h.parseSupplierID(w, r)
	if !ok {
		return
	}
	balance, err := h.service.BalanceFor(r.Context(), supplierID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) parseSupplierID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "supplierID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid supplier id")
		return 0, false
	}
	return id, true
}
