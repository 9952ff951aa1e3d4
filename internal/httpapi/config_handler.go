package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/service"
)

// ConfigHandler manages SIIGO credential configuration for the
// authenticated user's company. Unlike the dashboard reads, store
// failures here surface as 500s.
type ConfigHandler struct {
	config *service.ConfigService
}

func NewConfigHandler(config *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{config: config}
}

// sessionCompany returns the company the caller acts on: an explicit
// companyId query parameter, or the session's company.
func sessionCompany(r *http.Request) (uuid.UUID, bool) {
	if raw := r.URL.Query().Get("companyId"); raw != "" {
		id, err := uuid.Parse(raw)
		return id, err == nil
	}
	if s := SessionFromContext(r.Context()); s != nil {
		return s.CompanyID, true
	}
	return uuid.Nil, false
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := sessionCompany(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}

	view, err := h.config.GetConfig(r.Context(), companyID)
	if errors.Is(err, service.ErrCompanyNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Company not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch SIIGO config")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch SIIGO configuration"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": view})
}

type saveConfigRequest struct {
	Username  string `json:"username"`
	AccessKey string `json:"accessKey"`
	PartnerID string `json:"partnerId"`
}

func (h *ConfigHandler) Save(w http.ResponseWriter, r *http.Request) {
	companyID, ok := sessionCompany(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}

	var req saveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if req.Username == "" || req.AccessKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and access key are required"})
		return
	}

	view, warning, err := h.config.SaveConfig(r.Context(), companyID, req.Username, req.AccessKey, req.PartnerID)
	if errors.Is(err, service.ErrCompanyNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Company not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to save SIIGO config")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save SIIGO configuration"})
		return
	}

	if warning != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": warning,
			"warning": true,
			"data":    view,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "SIIGO configuration saved successfully",
		"data":    view,
	})
}

func (h *ConfigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := sessionCompany(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}

	err := h.config.DeleteConfig(r.Context(), companyID)
	if errors.Is(err, service.ErrCompanyNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Company not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to remove SIIGO config")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to remove SIIGO configuration"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "SIIGO configuration removed successfully",
	})
}

func (h *ConfigHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	companyID, ok := sessionCompany(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}

	result, err := h.config.TestConnection(r.Context(), companyID)
	if errors.Is(err, service.ErrCompanyNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Company not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("SIIGO connection test failed on store read")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Error interno del servidor",
		})
		return
	}

	if result.OK {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": result.Message,
			"data": map[string]string{
				"status":    "connected",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			},
		})
		return
	}

	status := http.StatusBadRequest
	if result.Kind == service.ConnectionRateLimited {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   result.Message,
		"details": result.Detail,
	})
}

func (h *ConfigHandler) Status(w http.ResponseWriter, r *http.Request) {
	companyID, ok := sessionCompany(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required"})
		return
	}

	view, err := h.config.Status(r.Context(), companyID)
	if errors.Is(err, service.ErrCompanyNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Company not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to check SIIGO status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": view})
}
