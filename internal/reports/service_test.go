package reports

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/expenses"
)

var testNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

type stubRepository struct {
	calls int32
}

func (s *stubRepository) CountOrdersByStatus(_ context.Context) (map[dc.Status]int, error) {
	atomic.AddInt32(&s.calls, 1)
	return map[dc.Status]int{dc.StatusPending: 3, dc.StatusCompleted: 5}, nil
}

func (s *stubRepository) CountLeadsByStatus(_ context.Context) (map[dc.Grade]int, error) {
	return map[dc.Grade]int{dc.GradeHot: 2, dc.GradeWarm: 4}, nil
}

type stubExpenses struct{}

func (stubExpenses) TotalsByStage(_ context.Context) (map[expenses.Stage]float64, error) {
	return map[expenses.Stage]float64{expenses.StagePending: 750}, nil
}

type stubPayments struct {
	collected float64
}

func (s stubPayments) CollectedBetween(_ context.Context, _, _ time.Time) (float64, error) {
	return s.collected, nil
}

func newTestService(t *testing.T) (*Service, *stubRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubRepository{}
	svc := NewService(repo, stubExpenses{}, stubPayments{collected: 1234567.5}, NewCache(client, time.Minute))
	svc.WithNow(func() time.Time { return testNow })
	return svc, repo, mr
}

func TestDashboardAggregates(t *testing.T) {
	svc, _, _ := newTestService(t)

	from := testNow.AddDate(0, 0, -30)
	dash, err := svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)

	assert.Equal(t, 3, dash.OrdersByStatus[dc.StatusPending])
	assert.Equal(t, 5, dash.OrdersByStatus[dc.StatusCompleted])
	assert.Equal(t, 2, dash.LeadsByStatus[dc.GradeHot])
	assert.Equal(t, 750.0, dash.ExpenseTotals[expenses.StagePending])
	assert.Equal(t, 1234567.5, dash.Collected)
	assert.Equal(t, "1,234,567.50", dash.CollectedDisplay)
	assert.Equal(t, testNow, dash.GeneratedAt)
}

func TestDashboardServesFromCache(t *testing.T) {
	svc, repo, _ := newTestService(t)

	from := testNow.AddDate(0, 0, -30)
	_, err := svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&repo.calls))
}

func TestInvalidateForcesRebuild(t *testing.T) {
	svc, repo, _ := newTestService(t)

	from := testNow.AddDate(0, 0, -30)
	_, err := svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&repo.calls))
}

func TestCacheExpiryRebuildsAfterTTL(t *testing.T) {
	svc, repo, mr := newTestService(t)

	from := testNow.AddDate(0, 0, -30)
	_, err := svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.Dashboard(context.Background(), from, testNow)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&repo.calls))
}
