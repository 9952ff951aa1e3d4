package siigo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSiigo struct {
	authCalls int
	pageCalls map[string]int
	authCode  int
	failPage  int
	customers []Customer
	invoices  []Invoice
	accounts  []Account
}

func newFakeSiigo() *fakeSiigo {
	return &fakeSiigo{pageCalls: map[string]int{}, authCode: http.StatusOK}
}

func (f *fakeSiigo) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls++
		if f.authCode != http.StatusOK {
			w.WriteHeader(f.authCode)
			fmt.Fprint(w, `{"error":"invalid_client"}`)
			return
		}
		json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok-123", ExpiresIn: 3600})
	})
	mux.HandleFunc("/v1/customers", func(w http.ResponseWriter, r *http.Request) {
		f.pageCalls["customers"]++
		f.serveList(w, r, f.customers)
	})
	mux.HandleFunc("/v1/invoices", func(w http.ResponseWriter, r *http.Request) {
		f.pageCalls["invoices"]++
		f.serveList(w, r, f.invoices)
	})
	mux.HandleFunc("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		f.pageCalls["accounts"]++
		f.serveList(w, r, f.accounts)
	})
	return mux
}

func (f *fakeSiigo) serveList(w http.ResponseWriter, r *http.Request, items any) {
	if r.Header.Get("Authorization") != "Bearer tok-123" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if pageNum == f.failPage {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch list := items.(type) {
	case []Customer:
		writePage(w, pageNum, list)
	case []Invoice:
		writePage(w, pageNum, list)
	case []Account:
		writePage(w, pageNum, list)
	}
}

func writePage[T any](w http.ResponseWriter, pageNum int, all []T) {
	start := (pageNum - 1) * pageSize
	end := start + pageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	json.NewEncoder(w).Encode(page[T]{
		Pagination: Pagination{Page: pageNum, PageSize: pageSize, TotalResults: len(all)},
		Results:    all[start:end],
	})
}

func makeCustomers(n int) []Customer {
	out := make([]Customer, n)
	for i := range out {
		out[i] = Customer{ID: fmt.Sprintf("c-%d", i), Identification: strconv.Itoa(i)}
	}
	return out
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(
		Credentials{Username: "user@test.com", AccessKey: "key", PartnerID: "TestPartner"},
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithPageInterval(0),
	)
}

func TestClientAuthenticatesOncePerToken(t *testing.T) {
	fake := newFakeSiigo()
	fake.customers = makeCustomers(5)
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := testClient(srv)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.GetAllCustomers(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, fake.authCalls, "token should be reused until expiry")
}

func TestClientDrainsAllPages(t *testing.T) {
	fake := newFakeSiigo()
	fake.customers = makeCustomers(250)
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := testClient(srv)

	customers, err := client.GetAllCustomers(context.Background())
	require.NoError(t, err)

	assert.Len(t, customers, 250)
	assert.Equal(t, 3, fake.pageCalls["customers"], "250 results at page size 100 is 3 pages")
}

func TestClientReturnsPartialSetWhenPageFails(t *testing.T) {
	fake := newFakeSiigo()
	fake.customers = makeCustomers(250)
	fake.failPage = 2
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := testClient(srv)

	customers, err := client.GetAllCustomers(context.Background())
	require.NoError(t, err, "page failures mid-drain are not surfaced as errors")
	assert.Len(t, customers, 100, "only the first page should have been accumulated")
}

func TestClientSurfacesAuthRejection(t *testing.T) {
	fake := newFakeSiigo()
	fake.authCode = http.StatusUnauthorized
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := testClient(srv)

	_, err := client.GetAllCustomers(context.Background())
	require.Error(t, err)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestClientSurfacesRateLimitOnAuth(t *testing.T) {
	fake := newFakeSiigo()
	fake.authCode = http.StatusTooManyRequests
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := testClient(srv)

	err := client.Authenticate(context.Background())
	require.Error(t, err)

	var rateErr *RateLimitError
	assert.ErrorAs(t, err, &rateErr)
}

func TestClientDrainsLedgerAccounts(t *testing.T) {
	fake := newFakeSiigo()
	for i := 0; i < 120; i++ {
		fake.accounts = append(fake.accounts, Account{
			Code:    fmt.Sprintf("1%03d", i),
			Name:    fmt.Sprintf("Cuenta %d", i),
			Balance: float64(i),
		})
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := testClient(srv)

	accounts, err := client.GetAllAccounts(context.Background(), &DateFilter{Start: "2026-01-01", End: "2026-12-31"})
	require.NoError(t, err)

	assert.Len(t, accounts, 120)
	assert.Equal(t, 2, fake.pageCalls["accounts"])
	assert.Equal(t, "1000", accounts[0].Code)
}

func TestClientForwardsDateFilter(t *testing.T) {
	var gotStart, gotEnd string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{AccessToken: "tok-123", ExpiresIn: 3600})
	})
	mux.HandleFunc("/v1/invoices", func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("start_date")
		gotEnd = r.URL.Query().Get("end_date")
		writePage(w, 1, []Invoice{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := testClient(srv)

	_, err := client.GetAllInvoices(context.Background(), &DateFilter{Start: "2026-01-01", End: "2026-06-30"})
	require.NoError(t, err)

	assert.Equal(t, "2026-01-01", gotStart)
	assert.Equal(t, "2026-06-30", gotEnd)
}
