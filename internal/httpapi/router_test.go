package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoip3/siigo-dashboard-service/internal/crypto"
	"github.com/grupoip3/siigo-dashboard-service/internal/model"
	"github.com/grupoip3/siigo-dashboard-service/internal/service"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

var sessionSecret = []byte("test-session-secret")

type memoryStore struct {
	companies map[uuid.UUID]*model.Company
}

func (s *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	return s.companies[id], nil
}

func (s *memoryStore) GetBySubdomain(ctx context.Context, subdomain string) (*model.Company, error) {
	for _, c := range s.companies {
		if c.Subdomain == subdomain {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) UpdateSiigoConfig(ctx context.Context, id uuid.UUID, username, encryptedKey, partnerID string) error {
	c, ok := s.companies[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.SiigoUsername = &username
	c.SiigoAccessKey = &encryptedKey
	c.SiigoPartnerID = &partnerID
	return nil
}

func (s *memoryStore) ClearSiigoConfig(ctx context.Context, id uuid.UUID) error {
	c, ok := s.companies[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.SiigoUsername = nil
	c.SiigoAccessKey = nil
	return nil
}

// testRouter wires the full router against an in-memory store and a
// stub SIIGO API that rejects every auth attempt.
func testRouter(t *testing.T, companies ...*model.Company) http.Handler {
	t.Helper()

	siigoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(siigoSrv.Close)

	store := &memoryStore{companies: map[uuid.UUID]*model.Company{}}
	for _, c := range companies {
		store.companies[c.ID] = c
	}

	cipher := crypto.New("test-key")
	factory := siigo.NewFactory(cipher,
		siigo.WithBaseURL(siigoSrv.URL),
		siigo.WithHTTPClient(siigoSrv.Client()),
		siigo.WithPageInterval(0),
	)

	return NewRouter(RouterConfig{
		Dashboards: service.NewDashboardService(store, factory),
		Config:     service.NewConfigService(store, cipher, factory, nil),
		Sessions:   NewJWTVerifier(sessionSecret),
	})
}

func sessionToken(t *testing.T, companyID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       "user-1",
		"companyId": companyID.String(),
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(sessionSecret)
	require.NoError(t, err)
	return signed
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestDashboardRequiresCompanyID(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{
		"/api/siigo/profit-loss",
		"/api/siigo/accounts-receivable",
		"/api/siigo/accounts-payable",
		"/api/siigo/trial-balance",
	} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Host = "grupoip3.com"
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Company ID is required", decodeBody(t, rec)["error"])
		})
	}
}

func TestDashboardDegradesToEmptyPayload(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Bare Co", Subdomain: "bare"}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodGet, "/api/siigo/profit-loss?companyId="+company.ID.String(), nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "upstream problems must never surface as 5xx")
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "empty", body["source"])
	assert.NotNil(t, body["data"])
	assert.NotEmpty(t, body["error"])
}

func TestDashboardResolvesCompanyFromSubdomain(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Fukubar", Subdomain: "fukubar"}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodGet, "/api/siigo/trial-balance", nil)
	req.Host = "fukubar.grupoip3.com"
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "empty", decodeBody(t, rec)["source"])
}

func TestDashboardEchoesDateFilters(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Bare Co"}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodGet,
		"/api/siigo/accounts-payable?companyId="+company.ID.String()+"&startDate=2026-02-01&endDate=2026-03-31", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	filters := body["filters"].(map[string]any)["dateRange"].(map[string]any)
	assert.Equal(t, "2026-02-01", filters["start"])
	assert.Equal(t, "2026-03-31", filters["end"])
}

func TestConfigEndpointsRequireSession(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/siigo/config", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
}

func TestConfigSessionTokenFromCookie(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Cookie Co"}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodGet, "/api/siigo/config", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: sessionToken(t, company.ID)})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigSaveAndGet(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Config Co"}
	router := testRouter(t, company)
	token := sessionToken(t, company.ID)

	save := httptest.NewRequest(http.MethodPost, "/api/siigo/config",
		strings.NewReader(`{"username":"user@test.com","accessKey":"secret"}`))
	save.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, save)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	// The stub SIIGO rejects every auth attempt, so the save carries a
	// verification warning.
	assert.Equal(t, true, body["warning"])
	assert.Contains(t, body["message"], "Credenciales guardadas")

	get := httptest.NewRequest(http.MethodGet, "/api/siigo/config", nil)
	get.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, get)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "user@test.com", data["siigoUsername"])
	assert.Equal(t, true, data["hasAccessKey"])
	assert.Equal(t, "GrupoIP3Dashboard", data["siigoPartnerId"])
}

func TestConfigSaveValidatesBody(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Config Co"}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodPost, "/api/siigo/config",
		strings.NewReader(`{"username":"user@test.com"}`))
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, company.ID))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username and access key are required", decodeBody(t, rec)["error"])
}

func TestTestConnectionReportsInvalidCredentials(t *testing.T) {
	cipher := crypto.New("test-key")
	username := "user@test.com"
	key := cipher.Encrypt("wrong-key")
	company := &model.Company{
		ID:             uuid.New(),
		Name:           "Probe Co",
		SiigoUsername:  &username,
		SiigoAccessKey: &key,
	}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodPost, "/api/siigo/test-connection", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, company.ID))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "inválidas")
}

func TestStatusEndpoint(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Status Co"}
	router := testRouter(t, company)

	req := httptest.NewRequest(http.MethodGet, "/api/siigo/status", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, company.ID))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, false, data["isConfigured"])
}

func TestExpiredSessionRejected(t *testing.T) {
	company := &model.Company{ID: uuid.New(), Name: "Expired Co"}
	router := testRouter(t, company)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       "user-1",
		"companyId": company.ID.String(),
		"exp":       time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString(sessionSecret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/siigo/config", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
