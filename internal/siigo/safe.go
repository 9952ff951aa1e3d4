package siigo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/crypto"
	"github.com/grupoip3/siigo-dashboard-service/internal/model"
	"github.com/grupoip3/siigo-dashboard-service/internal/monitoring"
)

// Source labels where dashboard data came from: a live SIIGO read or
// the empty fallback shape.
type Source string

const (
	SourceReal  Source = "real"
	SourceEmpty Source = "empty"
)

// SafeClient is the tri-state outcome of the factory: a connected
// client, or no client plus the reason. The UI renders something either
// way.
type SafeClient struct {
	Client *Client
	Source Source
	Err    string
}

// Factory builds tenant-bound clients from company records, converting
// every failure mode into the empty branch of SafeClient.
type Factory struct {
	cipher *crypto.Cipher
	opts   []Option
}

// NewFactory creates a Factory. opts are applied to every client it
// constructs (base URL, timeouts, pacing).
func NewFactory(cipher *crypto.Cipher, opts ...Option) *Factory {
	return &Factory{cipher: cipher, opts: opts}
}

// CreateSafe decides whether a real client can be built for the company
// and probes connectivity with one Authenticate call. It never returns
// a Go error and never panics: a nil or unconfigured company, a
// credential-decryption problem or an auth failure all collapse into
// {Client: nil, Source: empty, Err: reason}.
func (f *Factory) CreateSafe(ctx context.Context, company *model.Company) (sc SafeClient) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("SIIGO client factory recovered")
			sc = SafeClient{Source: SourceEmpty, Err: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	if company == nil {
		return SafeClient{Source: SourceEmpty, Err: "no company provided"}
	}
	if !company.IsSiigoConfigured() {
		return SafeClient{Source: SourceEmpty, Err: "no SIIGO credentials configured"}
	}

	client, err := f.Connect(ctx, company)
	if err != nil {
		log.Warn().Err(err).
			Str("company", company.ID.String()).
			Msg("SIIGO connectivity probe failed, serving empty data")
		return SafeClient{Source: SourceEmpty, Err: err.Error()}
	}

	return SafeClient{Client: client, Source: SourceReal}
}

// Connect builds a client for the company's decrypted credentials and
// probes connectivity with one Authenticate call, returning the typed
// client error on failure. Unlike CreateSafe this surfaces errors, for
// callers that need to classify them (credential tests).
func (f *Factory) Connect(ctx context.Context, company *model.Company) (*Client, error) {
	client := NewClient(Credentials{
		Username:  *company.SiigoUsername,
		AccessKey: f.cipher.Decrypt(*company.SiigoAccessKey),
		PartnerID: company.PartnerID(),
	}, f.opts...)

	if err := client.Authenticate(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Result is the outcome of one safe API call: real data, or the
// caller-supplied empty value plus the failure reason. Modeled as an
// explicit value rather than a swallowed error so the real/empty
// distinction is visible in the type.
type Result[T any] struct {
	Data   T
	Source Source
	Err    string
}

// SafeCall executes op and substitutes empty on any failure. empty must
// be a structurally valid instance of T (same shape, zeroed values) so
// downstream code needs no nil checks.
func SafeCall[T any](op func() (T, error), empty T, endpoint string) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("endpoint", endpoint).Msg("safe API call recovered")
			monitoring.DashboardFallbacks.WithLabelValues(endpoint).Inc()
			res = Result[T]{Data: empty, Source: SourceEmpty, Err: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	data, err := op()
	if err != nil {
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("SIIGO call failed, serving empty data")
		monitoring.DashboardFallbacks.WithLabelValues(endpoint).Inc()
		return Result[T]{Data: empty, Source: SourceEmpty, Err: err.Error()}
	}
	return Result[T]{Data: data, Source: SourceReal}
}
