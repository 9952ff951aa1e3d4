package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/grupoip3/siigo-dashboard-service/internal/report"
	"github.com/grupoip3/siigo-dashboard-service/internal/service"
	"github.com/grupoip3/siigo-dashboard-service/internal/tenant"
)

// DashboardHandler serves the four dashboard views. Upstream SIIGO
// failures never produce a 5xx here: the service layer degrades them
// to empty payloads with source "empty".
type DashboardHandler struct {
	dashboards *service.DashboardService
	now        func() time.Time
}

func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, now: time.Now}
}

// companyID resolves the tenant for a dashboard request: the companyId
// query parameter when present, otherwise the request subdomain.
func (h *DashboardHandler) companyID(r *http.Request) (uuid.UUID, bool) {
	if raw := r.URL.Query().Get("companyId"); raw != "" {
		id, err := uuid.Parse(raw)
		return id, err == nil
	}

	if sub := tenant.FromHost(r.Host); sub != "" {
		if company := h.dashboards.ResolveBySubdomain(r.Context(), sub); company != nil {
			return company.ID, true
		}
	}
	return uuid.Nil, false
}

func (h *DashboardHandler) dateRange(r *http.Request) report.DateRange {
	q := r.URL.Query()
	return report.ParseRange(q.Get("startDate"), q.Get("endDate"), h.now())
}

func (h *DashboardHandler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}
	rng := h.dateRange(r)
	writeEnvelope(w, h.dashboards.ProfitLoss(r.Context(), companyID, rng), rng)
}

func (h *DashboardHandler) AccountsReceivable(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}
	rng := h.dateRange(r)
	writeEnvelope(w, h.dashboards.AccountsReceivable(r.Context(), companyID, rng), rng)
}

func (h *DashboardHandler) AccountsPayable(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}
	rng := h.dateRange(r)
	writeEnvelope(w, h.dashboards.AccountsPayable(r.Context(), companyID, rng), rng)
}

func (h *DashboardHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}
	rng := h.dateRange(r)
	writeEnvelope(w, h.dashboards.TrialBalance(r.Context(), companyID, rng), rng)
}
