package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

var (
	testNow     = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	financeUser = shared.Actor{ID: 21, Name: "Meera", Role: shared.RoleFinance}
)

type mockRepository struct {
	payments map[int64]*Payment
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{payments: make(map[int64]*Payment), nextID: 1}
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) ListByOrder(_ context.Context, orderID int64) ([]Payment, error) {
	var out []Payment
	for id := int64(1); id < m.nextID; id++ {
		if p, ok := m.payments[id]; ok && p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) Create(_ context.Context, p Payment) (int64, error) {
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = testNow
	m.payments[p.ID] = &p
	return p.ID, nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.payments[id]; !ok {
		return ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

func (m *mockRepository) SumByOrder(_ context.Context, orderID int64) (float64, error) {
	var sum float64
	for _, p := range m.payments {
		if p.OrderID == orderID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (m *mockRepository) CollectedBetween(_ context.Context, from, to time.Time) (float64, error) {
	var sum float64
	for _, p := range m.payments {
		if !p.PaidAt.Before(from) && !p.PaidAt.After(to) {
			sum += p.Amount
		}
	}
	return sum, nil
}

type mockOrders struct {
	orders map[int64]*dc.Order
}

func (m *mockOrders) GetByID(_ context.Context, id int64) (*dc.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, dc.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func newTestService(t *testing.T) (*Service, *mockRepository, *mockOrders) {
	t.Helper()
	repo := newMockRepository()
	orders := &mockOrders{orders: map[int64]*dc.Order{
		5: {ID: 5, DCCode: "DC-A1", TotalAmount: 1000},
	}}
	svc := NewService(repo, orders)
	svc.WithNow(func() time.Time { return testNow })
	return svc, repo, orders
}

func TestRecordPaymentAgainstOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	payment, err := svc.Record(context.Background(), RecordInput{
		OrderID: 5,
		Amount:  400,
		Mode:    ModeUPI,
	}, financeUser)
	require.NoError(t, err)

	assert.Equal(t, int64(5), payment.OrderID)
	assert.Equal(t, financeUser.ID, payment.RecordedBy)
	assert.Equal(t, testNow, payment.PaidAt)
}

func TestRecordRejectsUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Record(context.Background(), RecordInput{OrderID: 404, Amount: 100, Mode: ModeCash}, financeUser)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRecordRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Record(context.Background(), RecordInput{OrderID: 5, Amount: 0, Mode: ModeCash}, financeUser)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Record(context.Background(), RecordInput{OrderID: 5, Amount: 100, Mode: Mode("barter")}, financeUser)
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestSummaryComputesOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Record(context.Background(), RecordInput{OrderID: 5, Amount: 400, Mode: ModeUPI}, financeUser)
	require.NoError(t, err)
	_, err = svc.Record(context.Background(), RecordInput{OrderID: 5, Amount: 250, Mode: ModeCash}, financeUser)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "DC-A1", summary.DCCode)
	assert.Equal(t, 1000.0, summary.TotalAmount)
	assert.Equal(t, 650.0, summary.Paid)
	assert.Equal(t, 350.0, summary.Outstanding)
	assert.Len(t, summary.Payments, 2)
}

func TestSummaryWithNoPaymentsIsFullyOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t)

	summary, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.Paid)
	assert.Equal(t, 1000.0, summary.Outstanding)
	assert.NotNil(t, summary.Payments)
	assert.Empty(t, summary.Payments)
}

func TestOverpaymentShowsNegativeOutstanding(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Record(context.Background(), RecordInput{OrderID: 5, Amount: 1200, Mode: ModeTransfer}, financeUser)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, -200.0, summary.Outstanding)
}

func TestRemovePayment(t *testing.T) {
	svc, repo, _ := newTestService(t)

	payment, err := svc.Record(context.Background(), RecordInput{OrderID: 5, Amount: 100, Mode: ModeCash}, financeUser)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(context.Background(), payment.ID, financeUser))
	_, err = repo.GetByID(context.Background(), payment.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Remove(context.Background(), 999, financeUser)
	assert.ErrorIs(t, err, ErrNotFound)
}
