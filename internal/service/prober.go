package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/monitoring"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

const probeTimeout = 30 * time.Second

// CredentialProber re-checks a company's SIIGO credentials in the
// background after a config change, keeping the credential-health
// gauge current and alerting when saved credentials stop working.
type CredentialProber struct {
	store   CompanyStore
	factory *siigo.Factory
	queue   chan uuid.UUID
}

// NewCredentialProber creates the prober and starts its worker.
func NewCredentialProber(store CompanyStore, factory *siigo.Factory) *CredentialProber {
	p := &CredentialProber{
		store:   store,
		factory: factory,
		queue:   make(chan uuid.UUID, 10),
	}
	go p.startWorker()
	return p
}

// Queue schedules a company for a background credential probe. Drops
// the probe when the queue is full; probes are best-effort.
func (p *CredentialProber) Queue(companyID uuid.UUID) {
	select {
	case p.queue <- companyID:
	default:
		log.Warn().Str("company", companyID.String()).Msg("Credential probe queue full, skipping")
	}
}

func (p *CredentialProber) startWorker() {
	for companyID := range p.queue {
		p.probe(companyID)
	}
}

func (p *CredentialProber) probe(companyID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	company, err := p.store.GetByID(ctx, companyID)
	if err != nil || company == nil {
		log.Warn().Err(err).Str("company", companyID.String()).Msg("Credential probe skipped, company unavailable")
		return
	}

	sc := p.factory.CreateSafe(ctx, company)
	if sc.Source == siigo.SourceReal {
		monitoring.CredentialHealth.WithLabelValues(company.Subdomain).Set(1)
		log.Info().Str("company", companyID.String()).Msg("Credential probe succeeded")
		return
	}

	monitoring.CredentialHealth.WithLabelValues(company.Subdomain).Set(0)
	monitoring.Alert("SIIGO credentials failing", map[string]string{
		"company":   companyID.String(),
		"subdomain": company.Subdomain,
		"reason":    sc.Err,
	})
}
