package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dialadrink/ledger/internal/audit"
	"github.com/dialadrink/ledger/internal/drivers"
	"github.com/dialadrink/ledger/internal/observability"
	"github.com/dialadrink/ledger/internal/penalties"
	"github.com/dialadrink/ledger/internal/submissions"
	"github.com/dialadrink/ledger/internal/suppliers"
	"github.com/dialadrink/ledger/internal/wallet"
	"github.com/dialadrink/ledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SubmissionsHandler *submissions.Handler
	PenaltiesHandler   *penalties.Handler
	DriversHandler     *drivers.Handler
	WalletHandler      *wallet.Handler
	SuppliersHandler   *suppliers.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with ledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.SubmissionsHandler.MountRoutes(r)
		params.PenaltiesHandler.MountRoutes(r)
		params.DriversHandler.MountRoutes(r)
		params.WalletHandler.MountRoutes(r)
		params.SuppliersHandler.MountRoutes(r)
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
