package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/crypto"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

// ErrCompanyNotFound is returned when the requested company does not
// exist (or was soft-deleted).
var ErrCompanyNotFound = errors.New("company not found")

// ConfigView is the credential configuration exposed to the UI. The
// access key itself never leaves the server; only its presence does.
type ConfigView struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	SiigoUsername  *string   `json:"siigoUsername"`
	SiigoPartnerID *string   `json:"siigoPartnerId"`
	HasAccessKey   bool      `json:"hasAccessKey"`
}

// ConnectionKind classifies a connection-test outcome.
type ConnectionKind string

const (
	ConnectionOK            ConnectionKind = "ok"
	ConnectionNotConfigured ConnectionKind = "not_configured"
	ConnectionAuthFailed    ConnectionKind = "auth"
	ConnectionRateLimited   ConnectionKind = "rate_limit"
	ConnectionUnreachable   ConnectionKind = "transport"
)

// ConnectionResult is the outcome of probing a company's SIIGO
// credentials.
type ConnectionResult struct {
	OK      bool
	Kind    ConnectionKind
	Message string
	Detail  string
}

// StatusView reports whether a company has SIIGO credentials saved,
// without touching the network.
type StatusView struct {
	CompanyID      uuid.UUID `json:"companyId"`
	CompanyName    string    `json:"companyName"`
	HasCredentials bool      `json:"hasCredentials"`
	IsConfigured   bool      `json:"isConfigured"`
}

// ConfigService manages per-company SIIGO credentials: encrypted at
// rest, probed on save, removable. Unlike the read-oriented dashboard
// operations, write failures here do surface to the caller.
type ConfigService struct {
	store   CompanyStore
	cipher  *crypto.Cipher
	factory *siigo.Factory
	prober  *CredentialProber
}

// NewConfigService wires the credential configuration service. prober
// may be nil to disable background re-probing.
func NewConfigService(store CompanyStore, cipher *crypto.Cipher, factory *siigo.Factory, prober *CredentialProber) *ConfigService {
	return &ConfigService{store: store, cipher: cipher, factory: factory, prober: prober}
}

// GetConfig returns the company's credential configuration.
func (s *ConfigService) GetConfig(ctx context.Context, companyID uuid.UUID) (*ConfigView, error) {
	company, err := s.store.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	return &ConfigView{
		ID:             company.ID,
		Name:           company.Name,
		SiigoUsername:  company.SiigoUsername,
		SiigoPartnerID: company.SiigoPartnerID,
		HasAccessKey:   company.SiigoAccessKey != nil && *company.SiigoAccessKey != "",
	}, nil
}

// SaveConfig encrypts and stores the credentials, then probes
// connectivity. The save itself succeeds even when the probe fails;
// the returned warning tells the user their credentials could not be
// verified.
func (s *ConfigService) SaveConfig(ctx context.Context, companyID uuid.UUID, username, accessKey, partnerID string) (*ConfigView, string, error) {
	if partnerID == "" {
		partnerID = "GrupoIP3Dashboard"
	}
	encrypted := s.cipher.Encrypt(accessKey)

	if err := s.store.UpdateSiigoConfig(ctx, companyID, username, encrypted, partnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrCompanyNotFound
		}
		return nil, "", err
	}

	view, err := s.GetConfig(ctx, companyID)
	if err != nil {
		return nil, "", err
	}

	warning := ""
	company, err := s.store.GetByID(ctx, companyID)
	if err == nil && company != nil {
		if _, probeErr := s.factory.Connect(ctx, company); probeErr != nil {
			log.Warn().Err(probeErr).Str("company", companyID.String()).
				Msg("SIIGO credentials saved but connection test failed")
			warning = "Credenciales guardadas, pero la conexión con SIIGO falló. Verifique que sean correctas."
		} else {
			log.Info().Str("company", companyID.String()).Msg("SIIGO credentials validated")
		}
	}

	if s.prober != nil {
		s.prober.Queue(companyID)
	}
	return view, warning, nil
}

// DeleteConfig removes the company's SIIGO credentials.
func (s *ConfigService) DeleteConfig(ctx context.Context, companyID uuid.UUID) error {
	if err := s.store.ClearSiigoConfig(ctx, companyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCompanyNotFound
		}
		return err
	}
	return nil
}

// TestConnection probes the company's current credentials against the
// SIIGO auth endpoint and classifies the outcome.
func (s *ConfigService) TestConnection(ctx context.Context, companyID uuid.UUID) (ConnectionResult, error) {
	company, err := s.store.GetByID(ctx, companyID)
	if err != nil {
		return ConnectionResult{}, err
	}
	if company == nil {
		return ConnectionResult{}, ErrCompanyNotFound
	}
	if !company.IsSiigoConfigured() {
		return ConnectionResult{
			Kind:    ConnectionNotConfigured,
			Message: "No hay credenciales SIIGO configuradas para esta empresa.",
		}, nil
	}

	_, probeErr := s.factory.Connect(ctx, company)
	if probeErr == nil {
		return ConnectionResult{
			OK:      true,
			Kind:    ConnectionOK,
			Message: "Conexión exitosa con SIIGO API",
		}, nil
	}

	var authErr *siigo.AuthenticationError
	var rateErr *siigo.RateLimitError
	switch {
	case errors.As(probeErr, &authErr):
		return ConnectionResult{
			Kind:    ConnectionAuthFailed,
			Message: "Credenciales SIIGO inválidas. Verifique su usuario y access key.",
			Detail:  probeErr.Error(),
		}, nil
	case errors.As(probeErr, &rateErr):
		return ConnectionResult{
			Kind:    ConnectionRateLimited,
			Message: "Límite de peticiones excedido. Intente nuevamente en unos segundos.",
			Detail:  probeErr.Error(),
		}, nil
	default:
		return ConnectionResult{
			Kind:    ConnectionUnreachable,
			Message: "Error conectando con SIIGO API",
			Detail:  probeErr.Error(),
		}, nil
	}
}

// Status reports whether credentials are configured, without probing.
func (s *ConfigService) Status(ctx context.Context, companyID uuid.UUID) (*StatusView, error) {
	company, err := s.store.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	configured := company.IsSiigoConfigured()
	return &StatusView{
		CompanyID:      company.ID,
		CompanyName:    company.Name,
		HasCredentials: configured,
		IsConfigured:   configured,
	}, nil
}
