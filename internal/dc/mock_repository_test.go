package dc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// mockRepository is an in-memory Repository for service and handler tests.
type mockRepository struct {
	orders   map[int64]*Order
	nextID   int64
	nextLine int64
	clock    time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders: make(map[int64]*Order),
		clock:  time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Lines = append([]Line(nil), o.Lines...)
	return &cp
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *mockRepository) GetByCode(_ context.Context, dcCode string) (*Order, error) {
	for _, o := range m.orders {
		if o.DCCode == dcCode {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) GetWithDetails(ctx context.Context, id int64) (*WithDetails, error) {
	o, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.withDetails(o), nil
}

func (m *mockRepository) withDetails(o *Order) *WithDetails {
	wd := &WithDetails{Order: *o, CreatedByName: fmt.Sprintf("user-%d", o.CreatedBy)}
	if o.AssignedTo != nil {
		name := fmt.Sprintf("user-%d", *o.AssignedTo)
		wd.AssignedToName = &name
	}
	if o.CompletedBy != nil {
		name := fmt.Sprintf("user-%d", *o.CompletedBy)
		wd.CompletedByName = &name
	}
	return wd
}

func matchText(field *string, pattern string) bool {
	return field != nil && strings.Contains(strings.ToLower(*field), pattern)
}

func (m *mockRepository) List(_ context.Context, req ListRequest) ([]WithDetails, int, error) {
	var matched []*Order
	for _, o := range m.orders {
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		if req.Zone != nil && (o.Zone == nil || *o.Zone != *req.Zone) {
			continue
		}
		if req.AssignedTo != nil && (o.AssignedTo == nil || *o.AssignedTo != *req.AssignedTo) {
			continue
		}
		if req.LeadStatus != nil && o.LeadStatus != *req.LeadStatus {
			continue
		}
		if req.From != nil && o.CreatedAt.Before(*req.From) {
			continue
		}
		if req.To != nil && o.CreatedAt.After(*req.To) {
			continue
		}
		if req.Query != nil && *req.Query != "" {
			pattern := strings.ToLower(*req.Query)
			code := o.DCCode
			school := o.SchoolName
			if !strings.Contains(strings.ToLower(code), pattern) &&
				!strings.Contains(strings.ToLower(school), pattern) &&
				!matchText(o.ContactName, pattern) &&
				!matchText(o.ContactMobile, pattern) &&
				!matchText(o.Zone, pattern) &&
				!matchText(o.Location, pattern) &&
				!matchText(o.Email, pattern) {
				continue
			}
		}
		matched = append(matched, o)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if req.Offset < len(matched) {
		matched = matched[req.Offset:]
	} else {
		matched = nil
	}
	if req.Limit > 0 && req.Limit < len(matched) {
		matched = matched[:req.Limit]
	}

	results := make([]WithDetails, 0, len(matched))
	for _, o := range matched {
		results = append(results, *m.withDetails(cloneOrder(o)))
	}
	return results, total, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTx{repo: m})
}

type mockTx struct {
	repo *mockRepository
}

func (t *mockTx) GetForUpdate(_ context.Context, id int64) (*Order, error) {
	o, ok := t.repo.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (t *mockTx) CreateOrder(_ context.Context, order Order) (int64, error) {
	for _, existing := range t.repo.orders {
		if existing.DCCode == order.DCCode {
			return 0, ErrDuplicateCode
		}
	}
	t.repo.nextID++
	order.ID = t.repo.nextID
	order.CreatedAt = t.repo.clock
	order.UpdatedAt = t.repo.clock
	t.repo.orders[order.ID] = cloneOrder(&order)
	return order.ID, nil
}

func (t *mockTx) InsertLine(_ context.Context, line Line) (int64, error) {
	o, ok := t.repo.orders[line.OrderID]
	if !ok {
		return 0, ErrNotFound
	}
	t.repo.nextLine++
	line.ID = t.repo.nextLine
	o.Lines = append(o.Lines, line)
	return line.ID, nil
}

func asStringPtr(v interface{}) *string {
	switch val := v.(type) {
	case string:
		return &val
	case *string:
		return val
	default:
		return nil
	}
}

func asTimePtr(v interface{}) *time.Time {
	switch val := v.(type) {
	case time.Time:
		return &val
	case *time.Time:
		return val
	default:
		return nil
	}
}

func asInt64Ptr(v interface{}) *int64 {
	switch val := v.(type) {
	case int64:
		return &val
	case *int64:
		return val
	default:
		return nil
	}
}

func applyUpdates(o *Order, updates map[string]interface{}) error {
	for col, val := range updates {
		switch col {
		case "school_name":
			o.SchoolName = *asStringPtr(val)
		case "contact_name":
			o.ContactName = asStringPtr(val)
		case "contact_mobile":
			o.ContactMobile = asStringPtr(val)
		case "email":
			o.Email = asStringPtr(val)
		case "address":
			o.Address = asStringPtr(val)
		case "zone":
			o.Zone = asStringPtr(val)
		case "location":
			o.Location = asStringPtr(val)
		case "school_type":
			o.SchoolType = asStringPtr(val)
		case "branch_count":
			switch v := val.(type) {
			case int:
				o.BranchCount = &v
			case *int:
				o.BranchCount = v
			}
		case "priority":
			o.Priority = val.(Grade)
		case "lead_status":
			o.LeadStatus = val.(Grade)
		case "estimated_delivery_date":
			o.EstimatedDeliveryDate = asTimePtr(val)
		case "actual_delivery_date":
			o.ActualDeliveryDate = asTimePtr(val)
		case "follow_up_date":
			o.FollowUpDate = asTimePtr(val)
		case "remarks":
			o.Remarks = asStringPtr(val)
		case "total_amount":
			o.TotalAmount = val.(float64)
		case "pod_proof_url":
			o.PODProofURL = asStringPtr(val)
		case "assigned_to":
			o.AssignedTo = asInt64Ptr(val)
		case "completed_by":
			o.CompletedBy = asInt64Ptr(val)
		default:
			return fmt.Errorf("mock: unknown column %s", col)
		}
	}
	return nil
}

func (t *mockTx) UpdateOrder(_ context.Context, id int64, updates map[string]interface{}) error {
	o, ok := t.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	for _, guarded := range []string{"dc_code", "status", "created_by"} {
		if _, present := updates[guarded]; present {
			return fmt.Errorf("column %s is not updatable", guarded)
		}
	}
	if err := applyUpdates(o, updates); err != nil {
		return err
	}
	o.UpdatedAt = t.repo.clock
	return nil
}

func (t *mockTx) UpdateStatus(_ context.Context, id int64, status Status, updates map[string]interface{}) error {
	o, ok := t.repo.orders[id]
	if !ok {
		return ErrNotFound
	}
	if err := applyUpdates(o, updates); err != nil {
		return err
	}
	o.Status = status
	o.UpdatedAt = t.repo.clock
	return nil
}

func (t *mockTx) DeleteLines(_ context.Context, orderID int64) error {
	o, ok := t.repo.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	o.Lines = nil
	return nil
}
