package leads

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/dc"
)

// mockRepository is an in-memory Repository for service tests.
type mockRepository struct {
	leads  map[int64]*Lead
	nextID int64
	clock  time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		leads:  make(map[int64]*Lead),
		nextID: 1,
		clock:  time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func cloneLead(l *Lead) *Lead {
	cp := *l
	return &cp
}

func (m *mockRepository) GetByID(_ context.Context, id int64) (*Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *mockRepository) List(_ context.Context, req ListRequest) ([]Lead, int, error) {
	var matched []Lead
	for _, lead := range m.leads {
		if req.Status != nil && lead.Status != *req.Status {
			continue
		}
		if req.Zone != nil && (lead.Zone == nil || *lead.Zone != *req.Zone) {
			continue
		}
		if req.AssignedTo != nil && (lead.AssignedTo == nil || *lead.AssignedTo != *req.AssignedTo) {
			continue
		}
		if req.DueBefore != nil && (lead.FollowUpDate == nil || lead.FollowUpDate.After(*req.DueBefore)) {
			continue
		}
		if req.Query != nil && *req.Query != "" && !leadMatchesQuery(lead, *req.Query) {
			continue
		}
		matched = append(matched, *cloneLead(lead))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if req.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[req.Offset:]
	if req.Limit > 0 && len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}
	return matched, total, nil
}

func leadMatchesQuery(l *Lead, q string) bool {
	q = strings.ToLower(q)
	fields := []*string{l.ContactName, l.ContactMobile, l.Zone, l.Location, l.Email}
	if strings.Contains(strings.ToLower(l.SchoolName), q) {
		return true
	}
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), q) {
			return true
		}
	}
	return false
}

func (m *mockRepository) DueForFollowUp(_ context.Context, req DueRequest) ([]Lead, error) {
	var matched []Lead
	for _, lead := range m.leads {
		if lead.FollowUpDate == nil || lead.OrderID != nil {
			continue
		}
		if lead.FollowUpDate.After(req.Cutoff) {
			continue
		}
		matched = append(matched, *cloneLead(lead))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].FollowUpDate.Before(*matched[j].FollowUpDate)
	})
	if req.Limit > 0 && len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}
	return matched, nil
}

func (m *mockRepository) Create(_ context.Context, lead Lead) (int64, error) {
	lead.ID = m.nextID
	m.nextID++
	lead.CreatedAt = m.clock
	lead.UpdatedAt = m.clock
	m.leads[lead.ID] = cloneLead(&lead)
	return lead.ID, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, updates map[string]interface{}) error {
	lead, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	for col, val := range updates {
		switch col {
		case "school_name":
			lead.SchoolName = val.(string)
		case "contact_name":
			lead.ContactName = asStringPtr(val)
		case "contact_mobile":
			lead.ContactMobile = asStringPtr(val)
		case "email":
			lead.Email = asStringPtr(val)
		case "zone":
			lead.Zone = asStringPtr(val)
		case "location":
			lead.Location = asStringPtr(val)
		case "status":
			lead.Status = val.(dc.Grade)
		case "follow_up_date":
			t := val.(time.Time)
			lead.FollowUpDate = &t
		case "notes":
			lead.Notes = asStringPtr(val)
		case "order_id":
			v := val.(int64)
			lead.OrderID = &v
		case "assigned_to":
			v := val.(int64)
			lead.AssignedTo = &v
		}
	}
	lead.UpdatedAt = m.clock
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.leads[id]; !ok {
		return ErrNotFound
	}
	delete(m.leads, id)
	return nil
}

func asStringPtr(val interface{}) *string {
	s := val.(string)
	return &s
}
