package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-crm/keystone-crm/internal/dc"
)

var testNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// mockRepository keeps balances and movements in memory. The tx wrapper
// applies changes directly; a callback error discards nothing because
// tests only mutate through happy paths or fail before writing.
type mockRepository struct {
	stock     map[string]*Stock
	movements []Movement
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{stock: make(map[string]*Stock), nextID: 1}
}

func (m *mockRepository) ListStock(_ context.Context, query string) ([]Stock, error) {
	var out []Stock
	for _, s := range m.stock {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockRepository) GetStock(_ context.Context, itemName string) (*Stock, error) {
	s, ok := m.stock[itemName]
	if !ok {
		return nil, ErrStockNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockRepository) ListMovements(_ context.Context, itemName string, limit int) ([]Movement, error) {
	var out []Movement
	for i := len(m.movements) - 1; i >= 0; i-- {
		if m.movements[i].ItemName == itemName {
			out = append(out, m.movements[i])
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type mockTx struct {
	repo    *mockRepository
	pending map[string]*Stock
	moves   []Movement
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &mockTx{repo: m, pending: make(map[string]*Stock)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for name, s := range tx.pending {
		m.stock[name] = s
	}
	m.movements = append(m.movements, tx.moves...)
	return nil
}

func (t *mockTx) GetStockForUpdate(_ context.Context, itemName string) (*Stock, error) {
	if s, ok := t.pending[itemName]; ok {
		cp := *s
		return &cp, nil
	}
	s, ok := t.repo.stock[itemName]
	if !ok {
		return nil, ErrStockNotFound
	}
	cp := *s
	return &cp, nil
}

func (t *mockTx) UpsertStock(_ context.Context, itemName string, quantity float64, uom *string) error {
	id := int64(len(t.repo.stock) + len(t.pending) + 1)
	if existing, ok := t.repo.stock[itemName]; ok {
		id = existing.ID
	}
	t.pending[itemName] = &Stock{ID: id, ItemName: itemName, Quantity: quantity, UOM: uom, UpdatedAt: testNow}
	return nil
}

func (t *mockTx) InsertMovement(_ context.Context, mv Movement) (int64, error) {
	mv.ID = t.repo.nextID
	t.repo.nextID++
	t.moves = append(t.moves, mv)
	return mv.ID, nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo)
	svc.WithNow(func() time.Time { return testNow })
	return svc, repo
}

func TestReceiveCreatesBalance(t *testing.T) {
	svc, repo := newTestService(t)

	stock, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 10, ActorID: 11})
	require.NoError(t, err)
	assert.Equal(t, 10.0, stock.Quantity)

	got, err := repo.GetStock(context.Background(), "Science Kit")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Quantity)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, MovementReceive, repo.movements[0].Type)
}

func TestReceiveAccumulates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 10, ActorID: 11})
	require.NoError(t, err)
	stock, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 5, ActorID: 11})
	require.NoError(t, err)

	assert.Equal(t, 15.0, stock.Quantity)
}

func TestIssueReducesBalance(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 10, ActorID: 11})
	require.NoError(t, err)

	stock, err := svc.Issue(context.Background(), IssueInput{ItemName: "Science Kit", Quantity: 4, ActorID: 11})
	require.NoError(t, err)
	assert.Equal(t, 6.0, stock.Quantity)
}

func TestIssueCannotGoNegative(t *testing.T) {
	svc, repo := newTestService(t)

	_, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 3, ActorID: 11})
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), IssueInput{ItemName: "Science Kit", Quantity: 5, ActorID: 11})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Balance untouched and no movement recorded for the failed issue.
	got, err := repo.GetStock(context.Background(), "Science Kit")
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Quantity)
	assert.Len(t, repo.movements, 1)
}

func TestIssueUnknownItemIsInsufficient(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Issue(context.Background(), IssueInput{ItemName: "Ghost Kit", Quantity: 1, ActorID: 11})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestIssueRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Issue(context.Background(), IssueInput{ItemName: "Science Kit", Quantity: 0, ActorID: 11})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: -2, ActorID: 11})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDCClientIssuesEachLine(t *testing.T) {
	svc, repo := newTestService(t)
	client := NewDCClient(svc)

	_, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 10, ActorID: 11})
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), ReceiveInput{ItemName: "Lab Manual", Quantity: 20, ActorID: 11})
	require.NoError(t, err)

	err = client.Issue(context.Background(), []dc.StockIssue{
		{ItemName: "Science Kit", Quantity: 2, Ref: "DC-X1-L1", ActorID: 11},
		{ItemName: "Lab Manual", Quantity: 5, Ref: "DC-X1-L2", ActorID: 11},
	})
	require.NoError(t, err)

	kit, err := repo.GetStock(context.Background(), "Science Kit")
	require.NoError(t, err)
	assert.Equal(t, 8.0, kit.Quantity)

	manual, err := repo.GetStock(context.Background(), "Lab Manual")
	require.NoError(t, err)
	assert.Equal(t, 15.0, manual.Quantity)
}

func TestDCClientStopsOnShortage(t *testing.T) {
	svc, repo := newTestService(t)
	client := NewDCClient(svc)

	_, err := svc.Receive(context.Background(), ReceiveInput{ItemName: "Science Kit", Quantity: 1, ActorID: 11})
	require.NoError(t, err)
	_, err = svc.Receive(context.Background(), ReceiveInput{ItemName: "Lab Manual", Quantity: 20, ActorID: 11})
	require.NoError(t, err)

	err = client.Issue(context.Background(), []dc.StockIssue{
		{ItemName: "Science Kit", Quantity: 5, Ref: "DC-X1-L1", ActorID: 11},
		{ItemName: "Lab Manual", Quantity: 5, Ref: "DC-X1-L2", ActorID: 11},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Second line never ran.
	manual, err := repo.GetStock(context.Background(), "Lab Manual")
	require.NoError(t, err)
	assert.Equal(t, 20.0, manual.Quantity)
}
