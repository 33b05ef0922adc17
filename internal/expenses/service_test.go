package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

var (
	testNow     = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	salesUser   = shared.Actor{ID: 7, Name: "Asha", Role: shared.RoleSales}
	managerUser = shared.Actor{ID: 13, Name: "Vik", Role: shared.RoleManager}
	financeUser = shared.Actor{ID: 21, Name: "Meera", Role: shared.RoleFinance}
)

// mockRepository buffers tx writes so a failed batch leaves the store
// untouched, mirroring a rolled-back transaction.
type mockRepository struct {
	expenses map[int64]*Expense
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{expenses: make(map[int64]*Expense), nextID: 1}
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, req ListRequest) ([]Expense, int, error) {
	var out []Expense
	for id := m.nextID - 1; id >= 1; id-- {
		e, ok := m.expenses[id]
		if !ok {
			continue
		}
		if req.Stage != nil && e.Stage != *req.Stage {
			continue
		}
		if req.Category != nil && e.Category != *req.Category {
			continue
		}
		if req.SubmittedBy != nil && e.SubmittedBy != *req.SubmittedBy {
			continue
		}
		out = append(out, *e)
	}
	total := len(out)
	if req.Offset > 0 {
		if req.Offset >= len(out) {
			return nil, total, nil
		}
		out = out[req.Offset:]
	}
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, total, nil
}

func (m *mockRepository) TotalsByStage(_ context.Context) (map[Stage]float64, error) {
	totals := make(map[Stage]float64)
	for _, e := range m.expenses {
		totals[e.Stage] += e.Amount
	}
	return totals, nil
}

func (m *mockRepository) Create(_ context.Context, e Expense) (int64, error) {
	e.ID = m.nextID
	m.nextID++
	e.CreatedAt = testNow
	e.UpdatedAt = testNow
	m.expenses[e.ID] = &e
	return e.ID, nil
}

type mockTx struct {
	repo    *mockRepository
	pending map[int64]*Expense
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &mockTx{repo: m, pending: make(map[int64]*Expense)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, e := range tx.pending {
		m.expenses[id] = e
	}
	return nil
}

func (t *mockTx) GetForUpdate(_ context.Context, id int64) (*Expense, error) {
	if e, ok := t.pending[id]; ok {
		cp := *e
		return &cp, nil
	}
	e, ok := t.repo.expenses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (t *mockTx) UpdateStage(_ context.Context, id int64, stage Stage, updates map[string]interface{}) error {
	base, ok := t.pending[id]
	if !ok {
		stored, found := t.repo.expenses[id]
		if !found {
			return ErrNotFound
		}
		cp := *stored
		base = &cp
	}
	base.Stage = stage
	for col, val := range updates {
		switch col {
		case "reviewed_by":
			v := val.(int64)
			base.ReviewedBy = &v
		case "settled_by":
			v := val.(int64)
			base.SettledBy = &v
		case "reviewed_at":
			v := val.(time.Time)
			base.ReviewedAt = &v
		case "settled_at":
			v := val.(time.Time)
			base.SettledAt = &v
		case "notes":
			v := val.(string)
			base.Notes = &v
		}
	}
	base.UpdatedAt = testNow
	t.pending[id] = base
	return nil
}

func newTestService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo)
	svc.WithNow(func() time.Time { return testNow })
	return svc, repo
}

func submitExpense(t *testing.T, svc *Service, amount float64) *Expense {
	t.Helper()
	e, err := svc.Submit(context.Background(), SubmitInput{Category: "travel", Amount: amount}, salesUser)
	require.NoError(t, err)
	return e
}

func TestSubmitStartsPending(t *testing.T) {
	svc, _ := newTestService(t)

	e := submitExpense(t, svc, 500)
	assert.Equal(t, StagePending, e.Stage)
	assert.Equal(t, salesUser.ID, e.SubmittedBy)
	assert.Equal(t, testNow, e.IncurredAt)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), SubmitInput{Amount: 100}, salesUser)
	assert.ErrorIs(t, err, ErrCategoryRequired)

	_, err = svc.Submit(context.Background(), SubmitInput{Category: "travel", Amount: 0}, salesUser)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApprovalChain(t *testing.T) {
	svc, _ := newTestService(t)
	e := submitExpense(t, svc, 500)

	reviewed, err := svc.ManagerApprove(context.Background(), e.ID, managerUser)
	require.NoError(t, err)
	assert.Equal(t, StageManagerApproved, reviewed.Stage)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, managerUser.ID, *reviewed.ReviewedBy)

	settled, err := svc.Approve(context.Background(), e.ID, financeUser)
	require.NoError(t, err)
	assert.Equal(t, StageApproved, settled.Stage)
	require.NotNil(t, settled.SettledBy)
	assert.Equal(t, financeUser.ID, *settled.SettledBy)
}

func TestFinanceCannotSkipManagerReview(t *testing.T) {
	svc, _ := newTestService(t)
	e := submitExpense(t, svc, 500)

	_, err := svc.Approve(context.Background(), e.ID, financeUser)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestApprovedIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	e := submitExpense(t, svc, 500)

	_, err := svc.ManagerApprove(context.Background(), e.ID, managerUser)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), e.ID, financeUser)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), e.ID, nil, financeUser)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = svc.ManagerApprove(context.Background(), e.ID, managerUser)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestRejectAtEitherStep(t *testing.T) {
	svc, _ := newTestService(t)

	first := submitExpense(t, svc, 100)
	rejected, err := svc.Reject(context.Background(), first.ID, nil, managerUser)
	require.NoError(t, err)
	assert.Equal(t, StageRejected, rejected.Stage)

	second := submitExpense(t, svc, 200)
	_, err = svc.ManagerApprove(context.Background(), second.ID, managerUser)
	require.NoError(t, err)
	notes := "no receipt attached"
	rejected, err = svc.Reject(context.Background(), second.ID, &notes, financeUser)
	require.NoError(t, err)
	assert.Equal(t, StageRejected, rejected.Stage)
	require.NotNil(t, rejected.Notes)
	assert.Equal(t, notes, *rejected.Notes)
}

func TestApproveBatchSettlesAll(t *testing.T) {
	svc, _ := newTestService(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		e := submitExpense(t, svc, 100)
		_, err := svc.ManagerApprove(context.Background(), e.ID, managerUser)
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	results, err := svc.ApproveBatch(context.Background(), ids, financeUser)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, e := range results {
		assert.Equal(t, StageApproved, e.Stage)
		require.NotNil(t, e.SettledBy)
		assert.Equal(t, financeUser.ID, *e.SettledBy)
	}
}

func TestApproveBatchIsAllOrNothing(t *testing.T) {
	svc, repo := newTestService(t)

	ready := submitExpense(t, svc, 100)
	_, err := svc.ManagerApprove(context.Background(), ready.ID, managerUser)
	require.NoError(t, err)

	// Still pending, so the batch must fail as a whole.
	notReady := submitExpense(t, svc, 200)

	_, err = svc.ApproveBatch(context.Background(), []int64{ready.ID, notReady.ID}, financeUser)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	got, err := repo.GetByID(context.Background(), ready.ID)
	require.NoError(t, err)
	assert.Equal(t, StageManagerApproved, got.Stage)
}

func TestApproveBatchRejectsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ApproveBatch(context.Background(), nil, financeUser)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestTotalsByStage(t *testing.T) {
	svc, _ := newTestService(t)

	submitExpense(t, svc, 100)
	e := submitExpense(t, svc, 250)
	_, err := svc.ManagerApprove(context.Background(), e.ID, managerUser)
	require.NoError(t, err)

	totals, err := svc.TotalsByStage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, totals[StagePending])
	assert.Equal(t, 250.0, totals[StageManagerApproved])
}
