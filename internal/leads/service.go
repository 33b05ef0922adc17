package leads

import (
	"context"
	"strconv"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// OrderCreator creates a DC order from a converted lead.
type OrderCreator interface {
	Create(ctx context.Context, req dc.CreateRequest, actor shared.Actor) (*dc.Order, error)
}

// Auditor records lead events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for leads. Every write takes the acting
// user explicitly.
type Service struct {
	repo   Repository
	orders OrderCreator
	audit  Auditor
	now    func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetOrderCreator sets the collaborator used by Convert.
func (s *Service) SetOrderCreator(oc OrderCreator) {
	s.orders = oc
}

// SetAuditor sets the audit sink.
func (s *Service) SetAuditor(a Auditor) {
	s.audit = a
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// List returns leads matching the filter set, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Lead, int, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	if req.Limit > 500 {
		req.Limit = 500
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.repo.List(ctx, req)
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id int64) (*Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// Create records a new lead. The creator is forced to the actor.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor shared.Actor) (*Lead, error) {
	if req.SchoolName == "" {
		return nil, ErrSchoolRequired
	}

	status := req.Status
	if status == "" {
		status = dc.GradeWarm
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	lead := Lead{
		SchoolName:    req.SchoolName,
		ContactName:   req.ContactName,
		ContactMobile: req.ContactMobile,
		Email:         req.Email,
		Zone:          req.Zone,
		Location:      req.Location,
		Status:        status,
		FollowUpDate:  req.FollowUpDate,
		Notes:         req.Notes,
		CreatedBy:     actor.ID,
		AssignedTo:    req.AssignedTo,
	}

	id, err := s.repo.Create(ctx, lead)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "lead.create", id, map[string]any{"school_name": lead.SchoolName})

	return s.repo.GetByID(ctx, id)
}

// Update applies a field merge on the lead.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest, actor shared.Actor) (*Lead, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.SchoolName != nil {
		if *req.SchoolName == "" {
			return nil, ErrSchoolRequired
		}
		updates["school_name"] = *req.SchoolName
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.ContactMobile != nil {
		updates["contact_mobile"] = *req.ContactMobile
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Zone != nil {
		updates["zone"] = *req.Zone
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *req.Status
	}
	if req.FollowUpDate != nil {
		updates["follow_up_date"] = *req.FollowUpDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = *req.AssignedTo
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "lead.update", id, nil)

	return s.repo.GetByID(ctx, id)
}

// Delete removes a lead. Converted leads stay on the books.
func (s *Service) Delete(ctx context.Context, id int64, actor shared.Actor) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Converted() {
		return ErrAlreadyConverted
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.ID, "lead.delete", id, nil)
	return nil
}

// Convert creates a saved DC order from the lead and links the lead to it.
// A lead converts at most once.
func (s *Service) Convert(ctx context.Context, id int64, req ConvertRequest, actor shared.Actor) (*dc.Order, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Converted() {
		return nil, ErrAlreadyConverted
	}

	saved := dc.StatusSaved
	createReq := dc.CreateRequest{
		SchoolName:    lead.SchoolName,
		ContactName:   lead.ContactName,
		ContactMobile: lead.ContactMobile,
		Email:         lead.Email,
		Zone:          lead.Zone,
		Location:      lead.Location,
		Priority:      lead.Status,
		LeadStatus:    lead.Status,
		Status:        &saved,
		FollowUpDate:  lead.FollowUpDate,
		Remarks:       lead.Notes,
		TotalAmount:   req.TotalAmount,
		AssignedTo:    lead.AssignedTo,
		Lines:         req.Lines,
	}

	order, err := s.orders.Create(ctx, createReq, actor)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, map[string]interface{}{"order_id": order.ID}); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "lead.convert", id, map[string]any{"order_id": order.ID, "dc_code": order.DCCode})

	return order, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, leadID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "lead",
		EntityID: strconv.FormatInt(leadID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
