package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grupoip3/siigo-dashboard-service/internal/service"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Dashboards *service.DashboardService
	Config     *service.ConfigService
	Sessions   SessionVerifier
}

// NewRouter creates the dashboard HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(Recover)
	r.Use(RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	dashboards := NewDashboardHandler(cfg.Dashboards)
	config := NewConfigHandler(cfg.Config)

	r.Route("/api/siigo", func(r chi.Router) {
		r.Get("/profit-loss", dashboards.ProfitLoss)
		r.Get("/accounts-receivable", dashboards.AccountsReceivable)
		r.Get("/accounts-payable", dashboards.AccountsPayable)
		r.Get("/trial-balance", dashboards.TrialBalance)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(cfg.Sessions))
			r.Use(httprate.LimitByIP(30, time.Minute))
			r.Get("/config", config.Get)
			r.Post("/config", config.Save)
			r.Delete("/config", config.Delete)
			r.Post("/test-connection", config.TestConnection)
			r.Get("/status", config.Status)
		})
	})

	return r
}
