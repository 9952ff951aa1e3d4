package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/grupoip3/siigo-dashboard-service/internal/model"
	"github.com/grupoip3/siigo-dashboard-service/internal/report"
	"github.com/grupoip3/siigo-dashboard-service/internal/siigo"
)

// CompanyStore is the persistence contract the dashboard needs. The
// store retries internally; a returned error means retries were
// exhausted.
type CompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*model.Company, error)
	UpdateSiigoConfig(ctx context.Context, id uuid.UUID, username, encryptedKey, partnerID string) error
	ClearSiigoConfig(ctx context.Context, id uuid.UUID) error
}

const fetchTimeout = 15 * time.Second

// DashboardService serves the four dashboard views. Every operation
// degrades to empty-but-valid data instead of failing: a missing
// company, a store outage or an unreachable SIIGO API all produce a
// zeroed payload with source "empty".
type DashboardService struct {
	store   CompanyStore
	factory *siigo.Factory
	now     func() time.Time
}

func NewDashboardService(store CompanyStore, factory *siigo.Factory) *DashboardService {
	return &DashboardService{store: store, factory: factory, now: time.Now}
}

// resolveCompany reads the company record, degrading store failures
// (after retry exhaustion) to "not found" so read paths never surface
// a store error.
func (s *DashboardService) resolveCompany(ctx context.Context, id uuid.UUID) *model.Company {
	company, err := s.store.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("company", id.String()).Msg("Company lookup failed, serving empty data")
		return nil
	}
	return company
}

// ResolveBySubdomain maps a request subdomain to its company. Store
// failures degrade to nil like resolveCompany.
func (s *DashboardService) ResolveBySubdomain(ctx context.Context, subdomain string) *model.Company {
	if subdomain == "" {
		return nil
	}
	company, err := s.store.GetBySubdomain(ctx, subdomain)
	if err != nil {
		log.Error().Err(err).Str("subdomain", subdomain).Msg("Company lookup failed")
		return nil
	}
	return company
}

// ProfitLoss derives the P&L view for a company over r.
func (s *DashboardService) ProfitLoss(ctx context.Context, companyID uuid.UUID, r report.DateRange) siigo.Result[report.ProfitLoss] {
	sc := s.safeClient(ctx, companyID)
	if sc.Client == nil {
		return emptyResult(report.EmptyProfitLoss(), sc.Err)
	}

	filter := dateFilter(r)
	return siigo.SafeCall(func() (report.ProfitLoss, error) {
		invoices, err := fetchWithTimeout(ctx, func(ctx context.Context) ([]siigo.Invoice, error) {
			return sc.Client.GetAllInvoices(ctx, filter)
		})
		if err != nil {
			return report.ProfitLoss{}, err
		}
		return report.BuildProfitLoss(invoices, r), nil
	}, report.EmptyProfitLoss(), "profit-loss")
}

// AccountsReceivable derives the receivables view. Invoices and
// customers are fetched concurrently; if one of the two fetches fails
// the other still contributes (partial results are expected).
func (s *DashboardService) AccountsReceivable(ctx context.Context, companyID uuid.UUID, r report.DateRange) siigo.Result[report.Receivables] {
	sc := s.safeClient(ctx, companyID)
	if sc.Client == nil {
		return emptyResult(report.EmptyReceivables(), sc.Err)
	}

	filter := dateFilter(r)
	return siigo.SafeCall(func() (report.Receivables, error) {
		var (
			wg        sync.WaitGroup
			invoices  []siigo.Invoice
			customers []siigo.Customer
			invErr    error
			custErr   error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			invoices, invErr = fetchWithTimeout(ctx, func(ctx context.Context) ([]siigo.Invoice, error) {
				return sc.Client.GetAllInvoices(ctx, filter)
			})
		}()
		go func() {
			defer wg.Done()
			customers, custErr = fetchWithTimeout(ctx, func(ctx context.Context) ([]siigo.Customer, error) {
				return sc.Client.GetAllCustomers(ctx)
			})
		}()
		wg.Wait()

		if invErr != nil && custErr != nil {
			return report.Receivables{}, invErr
		}
		if custErr != nil {
			log.Warn().Err(custErr).Msg("Customer fetch failed, debtor names unavailable")
		}
		if invErr != nil {
			log.Warn().Err(invErr).Msg("Invoice fetch failed, receivables computed from empty set")
		}
		return report.BuildReceivables(invoices, customers, r, s.now()), nil
	}, report.EmptyReceivables(), "accounts-receivable")
}

// AccountsPayable derives the payables view from purchases.
func (s *DashboardService) AccountsPayable(ctx context.Context, companyID uuid.UUID, r report.DateRange) siigo.Result[report.Payables] {
	sc := s.safeClient(ctx, companyID)
	if sc.Client == nil {
		return emptyResult(report.EmptyPayables(), sc.Err)
	}

	filter := dateFilter(r)
	return siigo.SafeCall(func() (report.Payables, error) {
		purchases, err := fetchWithTimeout(ctx, func(ctx context.Context) ([]siigo.Purchase, error) {
			return sc.Client.GetPurchases(ctx, filter)
		})
		if err != nil {
			return report.Payables{}, err
		}
		return report.BuildPayables(purchases, r, s.now()), nil
	}, report.EmptyPayables(), "accounts-payable")
}

// TrialBalance approximates the trial balance from invoices and
// purchases, fetched concurrently with the same partial-failure join
// as AccountsReceivable.
func (s *DashboardService) TrialBalance(ctx context.Context, companyID uuid.UUID, r report.DateRange) siigo.Result[report.TrialBalance] {
	sc := s.safeClient(ctx, companyID)
	if sc.Client == nil {
		return emptyResult(report.EmptyTrialBalance(), sc.Err)
	}

	filter := dateFilter(r)
	return siigo.SafeCall(func() (report.TrialBalance, error) {
		var (
			wg        sync.WaitGroup
			invoices  []siigo.Invoice
			purchases []siigo.Purchase
			invErr    error
			purErr    error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			invoices, invErr = fetchWithTimeout(ctx, func(ctx context.Context) ([]siigo.Invoice, error) {
				return sc.Client.GetAllInvoices(ctx, filter)
			})
		}()
		go func() {
			defer wg.Done()
			purchases, purErr = fetchWithTimeout(ctx, func(ctx context.Context) ([]siigo.Purchase, error) {
				return sc.Client.GetPurchases(ctx, filter)
			})
		}()
		wg.Wait()

		if invErr != nil && purErr != nil {
			return report.TrialBalance{}, invErr
		}
		return report.BuildTrialBalance(invoices, purchases, r), nil
	}, report.EmptyTrialBalance(), "trial-balance")
}

func (s *DashboardService) safeClient(ctx context.Context, companyID uuid.UUID) siigo.SafeClient {
	return s.factory.CreateSafe(ctx, s.resolveCompany(ctx, companyID))
}

// fetchWithTimeout bounds one SIIGO fetch to its own deadline. Sibling
// fetches keep their own contexts; cancelling one never cascades.
func fetchWithTimeout[T any](parent context.Context, fetch func(context.Context) ([]T, error)) ([]T, error) {
	ctx, cancel := context.WithTimeout(parent, fetchTimeout)
	defer cancel()
	return fetch(ctx)
}

func dateFilter(r report.DateRange) *siigo.DateFilter {
	return &siigo.DateFilter{Start: r.StartString(), End: r.EndString()}
}

func emptyResult[T any](empty T, reason string) siigo.Result[T] {
	return siigo.Result[T]{Data: empty, Source: siigo.SourceEmpty, Err: reason}
}
