package service

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupoip3/siigo-dashboard-service/internal/crypto"
	"github.com/grupoip3/siigo-dashboard-service/internal/model"
	"github.com/grupoip3/siigo-dashboard-service/internal/monitoring"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// gatedStore blocks every read until the gate opens, keeping the probe
// worker busy.
type gatedStore struct {
	*fakeStore
	gate chan struct{}
}

func (s *gatedStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	<-s.gate
	return s.fakeStore.GetByID(ctx, id)
}

func proberFixture(t *testing.T, store CompanyStore, authCode int) *CredentialProber {
	t.Helper()
	cipher := crypto.New("test-key")
	srv := authStub(t, authCode)
	factory := siigo.NewFactory(cipher,
		siigo.WithBaseURL(srv.URL),
		siigo.WithHTTPClient(srv.Client()),
		siigo.WithPageInterval(0),
	)
	return NewCredentialProber(store, factory)
}

func credentialHealth(subdomain string) float64 {
	return testutil.ToFloat64(monitoring.CredentialHealth.WithLabelValues(subdomain))
}

func TestProberMarksWorkingCredentialsHealthy(t *testing.T) {
	cipher := crypto.New("test-key")
	company := testCompany(cipher)
	company.Subdomain = "probe-ok"

	prober := proberFixture(t, newFakeStore(company), http.StatusOK)
	prober.Queue(company.ID)

	require.Eventually(t, func() bool {
		return credentialHealth("probe-ok") == 1
	}, 2*time.Second, 10*time.Millisecond, "probe should raise the health gauge")
}

func TestProberAlertsOnFailingCredentials(t *testing.T) {
	var out syncBuffer
	old := log.Logger
	log.Logger = zerolog.New(&out)
	defer func() { log.Logger = old }()

	cipher := crypto.New("test-key")
	company := testCompany(cipher)
	company.Subdomain = "probe-bad"

	prober := proberFixture(t, newFakeStore(company), http.StatusUnauthorized)
	prober.Queue(company.ID)

	require.Eventually(t, func() bool {
		return credentialHealth("probe-bad") == 0 &&
			strings.Contains(out.String(), "ALERT")
	}, 2*time.Second, 10*time.Millisecond, "probe should zero the gauge and emit an alert")

	assert.Contains(t, out.String(), company.ID.String())
	assert.Contains(t, out.String(), "probe-bad")
}

func TestProberQueueNeverBlocks(t *testing.T) {
	gate := make(chan struct{})
	store := &gatedStore{fakeStore: newFakeStore(), gate: gate}
	defer close(gate)

	prober := proberFixture(t, store, http.StatusOK)

	// The worker stalls on the gated store; the buffer fills and every
	// further enqueue is dropped instead of blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			prober.Queue(uuid.New())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Queue blocked while the probe queue was full")
	}
}
