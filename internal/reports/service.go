package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/expenses"
)

// ExpenseSource sums expense claims per approval stage.
type ExpenseSource interface {
	TotalsByStage(ctx context.Context) (map[expenses.Stage]float64, error)
}

// PaymentSource sums money collected in a date range.
type PaymentSource interface {
	CollectedBetween(ctx context.Context, from, to time.Time) (float64, error)
}

// Dashboard is the aggregate snapshot the frontend renders.
type Dashboard struct {
	OrdersByStatus   map[dc.Status]int          `json:"orders_by_status"`
	LeadsByStatus    map[dc.Grade]int           `json:"leads_by_status"`
	ExpenseTotals    map[expenses.Stage]float64 `json:"expense_totals"`
	Collected        float64                    `json:"collected"`
	CollectedDisplay string                     `json:"collected_display"`
	From             time.Time                  `json:"from"`
	To               time.Time                  `json:"to"`
	GeneratedAt      time.Time                  `json:"generated_at"`
}

// Service assembles the dashboard by fanning the aggregate queries out
// in parallel and caching the combined result.
type Service struct {
	repo     Repository
	expenses ExpenseSource
	payments PaymentSource
	cache    *Cache
	now      func() time.Time
	printer  *message.Printer
}

// NewService creates a new service.
func NewService(repo Repository, exp ExpenseSource, pay PaymentSource, cache *Cache) *Service {
	return &Service{
		repo:     repo,
		expenses: exp,
		payments: pay,
		cache:    cache,
		now:      time.Now,
		printer:  message.NewPrinter(language.English),
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

const dateLayout = "2006-01-02"

// Dashboard returns the aggregate snapshot for the given collection
// window, serving from cache when a fresh copy exists.
func (s *Service) Dashboard(ctx context.Context, from, to time.Time) (*Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "dashboard", from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	var dash Dashboard
	err = s.cache.FetchJSON(ctx, key, &dash, func(ctx context.Context) (interface{}, error) {
		return s.build(ctx, from, to)
	})
	if err != nil {
		return nil, err
	}
	return &dash, nil
}

// Invalidate drops every cached report. Called after bulk writes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) build(ctx context.Context, from, to time.Time) (*Dashboard, error) {
	dash := &Dashboard{From: from, To: to, GeneratedAt: s.now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.repo.CountOrdersByStatus(ctx)
		if err != nil {
			return err
		}
		dash.OrdersByStatus = counts
		return nil
	})
	g.Go(func() error {
		counts, err := s.repo.CountLeadsByStatus(ctx)
		if err != nil {
			return err
		}
		dash.LeadsByStatus = counts
		return nil
	})
	g.Go(func() error {
		totals, err := s.expenses.TotalsByStage(ctx)
		if err != nil {
			return err
		}
		dash.ExpenseTotals = totals
		return nil
	})
	g.Go(func() error {
		collected, err := s.payments.CollectedBetween(ctx, from, to)
		if err != nil {
			return err
		}
		dash.Collected = collected
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash.CollectedDisplay = s.printer.Sprintf("%.2f", dash.Collected)
	return dash, nil
}
