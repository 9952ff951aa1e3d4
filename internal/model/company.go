package model

import (
	"time"

	"github.com/google/uuid"
)

// Company represents the companies table. Each company is one dashboard
// tenant, isolated by subdomain.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`

	// SIIGO integration credentials. SiigoAccessKey is stored encrypted
	// (ivHex:cipherHex) and is never serialized to JSON.
	SiigoUsername  *string `json:"siigoUsername,omitempty"`
	SiigoAccessKey *string `json:"-"`
	SiigoPartnerID *string `json:"siigoPartnerId,omitempty"`

	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsSiigoConfigured reports whether the company has a usable SIIGO
// credential pair. An encrypted key without a username is an inconsistent
// record and counts as not configured.
func (c *Company) IsSiigoConfigured() bool {
	return c != nil &&
		c.SiigoUsername != nil && *c.SiigoUsername != "" &&
		c.SiigoAccessKey != nil && *c.SiigoAccessKey != ""
}

// PartnerID returns the configured SIIGO partner identifier, or the
// default used by the dashboard when none was saved.
func (c *Company) PartnerID() string {
	if c.SiigoPartnerID != nil && *c.SiigoPartnerID != "" {
		return *c.SiigoPartnerID
	}
	return "GrupoIP3Dashboard"
}
