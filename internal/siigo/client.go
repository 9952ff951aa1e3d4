package siigo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/grupoip3/siigo-dashboard-service/internal/monitoring"
)

const (
	defaultBaseURL      = "https://api.siigo.com"
	defaultTimeout      = 15 * time.Second
	defaultPageInterval = 500 * time.Millisecond
	pageSize            = 100
)

// session is the ephemeral bearer token held by one client instance.
// Never persisted, never shared across tenants.
type session struct {
	token     string
	expiresAt time.Time
}

func (s session) valid(now time.Time) bool {
	return s.token != "" && now.Before(s.expiresAt)
}

// Client is a tenant-bound SIIGO API client. It authenticates lazily,
// reuses its bearer token until expiry and paces paginated reads to
// respect SIIGO's rate limits. It performs no internal retries; retry
// policy belongs to the caller.
type Client struct {
	creds   Credentials
	baseURL string
	http    *http.Client
	pacer   *rate.Limiter
	now     func() time.Time

	mu   sync.Mutex
	sess session
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the SIIGO API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPageInterval sets the pacing interval between pagination pages.
// The default is a constant 500ms; the limiter is a token bucket, so
// substituting a different policy does not change the client contract.
func WithPageInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.pacer = nil
			return
		}
		c.pacer = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient builds a client for one tenant's credentials.
func NewClient(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:   creds,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		pacer:   rate.NewLimiter(rate.Every(defaultPageInterval), 1),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate posts the tenant credentials to /auth and stores the
// returned bearer token with its expiry. A non-2xx response is an
// AuthenticationError carrying the upstream status and body.
func (c *Client) Authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"username":   c.creds.Username,
		"access_key": c.creds.AccessKey,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Partner-Id", c.creds.PartnerID)

	resp, err := c.http.Do(req)
	if err != nil {
		monitoring.SiigoAuthAttempts.WithLabelValues("transport_error").Inc()
		return &TransportError{Resource: "auth", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		monitoring.SiigoAuthAttempts.WithLabelValues("rate_limited").Inc()
		return &RateLimitError{Resource: "auth"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		monitoring.SiigoAuthAttempts.WithLabelValues("rejected").Inc()
		return &AuthenticationError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	var auth AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		monitoring.SiigoAuthAttempts.WithLabelValues("transport_error").Inc()
		return &TransportError{Resource: "auth", Err: err}
	}

	c.mu.Lock()
	c.sess = session{
		token:     auth.AccessToken,
		expiresAt: c.now().Add(time.Duration(auth.ExpiresIn) * time.Second),
	}
	c.mu.Unlock()

	monitoring.SiigoAuthAttempts.WithLabelValues("success").Inc()
	return nil
}

// validToken returns the current bearer token, re-authenticating first
// when none is held or the held one expired.
func (c *Client) validToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	if sess.valid(c.now()) {
		return sess.token, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.token, nil
}

// get performs one authenticated GET against a list endpoint and
// decodes the response into out.
func (c *Client) get(ctx context.Context, resource string, query url.Values, out any) error {
	token, err := c.validToken(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + "/v1/" + resource
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Partner-Id", c.creds.PartnerID)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		monitoring.SiigoRequests.WithLabelValues(resource, "transport_error").Inc()
		return &TransportError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()
	monitoring.SiigoRequestDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		monitoring.SiigoRequests.WithLabelValues(resource, "rate_limited").Inc()
		return &RateLimitError{Resource: resource}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		text, _ := io.ReadAll(resp.Body)
		monitoring.SiigoRequests.WithLabelValues(resource, "error").Inc()
		return &APIError{Resource: resource, StatusCode: resp.StatusCode, Body: string(text)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		monitoring.SiigoRequests.WithLabelValues(resource, "error").Inc()
		return &TransportError{Resource: resource, Err: err}
	}

	monitoring.SiigoRequests.WithLabelValues(resource, "success").Inc()
	return nil
}

// page is the paginated list envelope for any resource.
type page[T any] struct {
	Pagination Pagination `json:"pagination"`
	Results    []T        `json:"results"`
}

func pageQuery(n int, filter *DateFilter) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	q.Set("page_size", strconv.Itoa(pageSize))
	if filter != nil {
		if filter.Start != "" {
			q.Set("start_date", filter.Start)
		}
		if filter.End != "" {
			q.Set("end_date", filter.End)
		}
	}
	return q
}

// drain pages through a list endpoint until the total learned from the
// pagination envelope is exhausted. Between pages it waits on the
// client's pacer. Any page error stops the drain early; the partial set
// accumulated so far is returned without an error, since callers treat
// partial results as expected.
func drain[T any](ctx context.Context, c *Client, resource string, filter *DateFilter) []T {
	var all []T
	pageNum := 1

	for {
		var p page[T]
		if err := c.get(ctx, resource, pageQuery(pageNum, filter), &p); err != nil {
			log.Warn().Err(err).
				Str("resource", resource).
				Int("page", pageNum).
				Int("accumulated", len(all)).
				Msg("SIIGO pagination drain stopped early")
			return all
		}

		all = append(all, p.Results...)

		if p.Pagination.PageSize <= 0 || p.Pagination.TotalResults <= 0 {
			return all
		}
		totalPages := (p.Pagination.TotalResults + p.Pagination.PageSize - 1) / p.Pagination.PageSize
		if pageNum >= totalPages {
			return all
		}
		pageNum++

		if c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				return all
			}
		}
	}
}

// GetAllCustomers drains the customers endpoint.
func (c *Client) GetAllCustomers(ctx context.Context) ([]Customer, error) {
	if _, err := c.validToken(ctx); err != nil {
		return nil, err
	}
	return drain[Customer](ctx, c, "customers", nil), nil
}

// GetAllInvoices drains the invoices endpoint with an optional date
// filter. SIIGO's date window is advisory; callers re-filter locally.
func (c *Client) GetAllInvoices(ctx context.Context, filter *DateFilter) ([]Invoice, error) {
	if _, err := c.validToken(ctx); err != nil {
		return nil, err
	}
	return drain[Invoice](ctx, c, "invoices", filter), nil
}

// GetPurchases drains the purchases endpoint with an optional date filter.
func (c *Client) GetPurchases(ctx context.Context, filter *DateFilter) ([]Purchase, error) {
	if _, err := c.validToken(ctx); err != nil {
		return nil, err
	}
	return drain[Purchase](ctx, c, "purchases", filter), nil
}

// GetAllAccounts drains the ledger accounts endpoint.
func (c *Client) GetAllAccounts(ctx context.Context, filter *DateFilter) ([]Account, error) {
	if _, err := c.validToken(ctx); err != nil {
		return nil, err
	}
	return drain[Account](ctx, c, "accounts", filter), nil
}

// String implements fmt.Stringer without leaking credentials.
func (c *Client) String() string {
	return fmt.Sprintf("siigo.Client{username: %s, baseURL: %s}", c.creds.Username, c.baseURL)
}
