package dc

import (
	"context"
	"fmt"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// StockIssue describes one line of stock leaving the warehouse when a
// delivery completes.
type StockIssue struct {
	ItemName string
	Quantity float64
	Ref      string
	ActorID  int64
}

// InventoryClient provides stock operations for completed deliveries.
type InventoryClient interface {
	Issue(ctx context.Context, issues []StockIssue) error
}

// Auditor records lifecycle events.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service provides business logic for DC orders. Every write takes the
// acting user explicitly; nothing is read from ambient state.
type Service struct {
	repo      Repository
	inventory InventoryClient
	audit     Auditor
	now       func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetInventory sets the inventory client used on completion.
func (s *Service) SetInventory(inv InventoryClient) {
	s.inventory = inv
}

// SetAuditor sets the audit sink for lifecycle events.
func (s *Service) SetAuditor(a Auditor) {
	s.audit = a
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// List returns orders matching the filter set, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]WithDetails, int, error) {
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Status != nil && !req.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
	}
	if req.LeadStatus != nil && !req.LeadStatus.IsValid() {
		return nil, 0, ErrInvalidGrade
	}
	return s.repo.List(ctx, req)
}

// Get retrieves a single order with identity fields resolved.
func (s *Service) Get(ctx context.Context, id int64) (*WithDetails, error) {
	return s.repo.GetWithDetails(ctx, id)
}

// GetByCode resolves an order by its printed DC code, the identifier that
// appears on challan documents and proof-of-delivery slips.
func (s *Service) GetByCode(ctx context.Context, dcCode string) (*Order, error) {
	if dcCode == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByCode(ctx, dcCode)
}

// Create inserts a new order. The creator is always the actor, never the
// payload; dc_code is generated when absent.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor shared.Actor) (*Order, error) {
	if req.SchoolName == "" {
		return nil, ErrSchoolNameRequired
	}
	for i, line := range req.Lines {
		if line.Quantity < 0 {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrNegativeQuantity)
		}
		if line.UnitPrice < 0 {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrNegativePrice)
		}
	}

	status := StatusPending
	if req.Status != nil {
		status = *req.Status
	}
	if status != StatusSaved && status != StatusPending {
		return nil, fmt.Errorf("%w: new orders start saved or pending", ErrInvalidStatus)
	}

	priority := req.Priority
	if priority == "" {
		priority = GradeWarm
	}
	leadStatus := req.LeadStatus
	if leadStatus == "" {
		leadStatus = GradeWarm
	}
	if !priority.IsValid() || !leadStatus.IsValid() {
		return nil, ErrInvalidGrade
	}

	dcCode := ""
	if req.DCCode != nil {
		dcCode = *req.DCCode
	}
	if dcCode == "" {
		dcCode = GenerateDCCode(s.now())
	}

	order := Order{
		DCCode:                dcCode,
		SchoolName:            req.SchoolName,
		ContactName:           req.ContactName,
		ContactMobile:         req.ContactMobile,
		Email:                 req.Email,
		Address:               req.Address,
		Zone:                  req.Zone,
		Location:              req.Location,
		SchoolType:            req.SchoolType,
		BranchCount:           req.BranchCount,
		Priority:              priority,
		LeadStatus:            leadStatus,
		Status:                status,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		FollowUpDate:          req.FollowUpDate,
		Remarks:               req.Remarks,
		TotalAmount:           req.TotalAmount,
		CreatedBy:             actor.ID,
		AssignedTo:            req.AssignedTo,
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id

		for i, reqLine := range req.Lines {
			line := Line{
				OrderID:    orderID,
				Name:       reqLine.Name,
				Quantity:   reqLine.Quantity,
				UnitPrice:  reqLine.UnitPrice,
				UOM:        reqLine.UOM,
				ExpiryDate: reqLine.ExpiryDate,
				LineOrder:  i,
			}
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "dc.create", orderID, map[string]any{"dc_code": dcCode})

	return s.repo.GetByID(ctx, orderID)
}

// Update merges descriptive fields. Lines are replaced wholesale when
// supplied; total_amount is whatever the caller says it is, never derived.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest, actor shared.Actor) (*Order, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if req.Lines != nil {
		for i, line := range *req.Lines {
			if line.Quantity < 0 {
				return nil, fmt.Errorf("line %d: %w", i+1, ErrNegativeQuantity)
			}
			if line.UnitPrice < 0 {
				return nil, fmt.Errorf("line %d: %w", i+1, ErrNegativePrice)
			}
		}
	}

	updates := make(map[string]interface{})
	if req.SchoolName != nil {
		updates["school_name"] = *req.SchoolName
	}
	if req.ContactName != nil {
		updates["contact_name"] = req.ContactName
	}
	if req.ContactMobile != nil {
		updates["contact_mobile"] = req.ContactMobile
	}
	if req.Email != nil {
		updates["email"] = req.Email
	}
	if req.Address != nil {
		updates["address"] = req.Address
	}
	if req.Zone != nil {
		updates["zone"] = req.Zone
	}
	if req.Location != nil {
		updates["location"] = req.Location
	}
	if req.SchoolType != nil {
		updates["school_type"] = req.SchoolType
	}
	if req.BranchCount != nil {
		updates["branch_count"] = req.BranchCount
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, ErrInvalidGrade
		}
		updates["priority"] = *req.Priority
	}
	if req.LeadStatus != nil {
		if !req.LeadStatus.IsValid() {
			return nil, ErrInvalidGrade
		}
		updates["lead_status"] = *req.LeadStatus
	}
	if req.EstimatedDeliveryDate != nil {
		updates["estimated_delivery_date"] = req.EstimatedDeliveryDate
	}
	if req.FollowUpDate != nil {
		updates["follow_up_date"] = req.FollowUpDate
	}
	if req.Remarks != nil {
		updates["remarks"] = req.Remarks
	}
	if req.TotalAmount != nil {
		updates["total_amount"] = *req.TotalAmount
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = req.AssignedTo
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if len(updates) > 0 {
			if err := tx.UpdateOrder(ctx, id, updates); err != nil {
				return fmt.Errorf("update order: %w", err)
			}
		}
		if req.Lines != nil {
			if err := tx.DeleteLines(ctx, id); err != nil {
				return fmt.Errorf("delete lines: %w", err)
			}
			for i, reqLine := range *req.Lines {
				line := Line{
					OrderID:    id,
					Name:       reqLine.Name,
					Quantity:   reqLine.Quantity,
					UnitPrice:  reqLine.UnitPrice,
					UOM:        reqLine.UOM,
					ExpiryDate: reqLine.ExpiryDate,
					LineOrder:  i,
				}
				if _, err := tx.InsertLine(ctx, line); err != nil {
					return fmt.Errorf("insert line: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "dc.update", id, nil)

	return s.repo.GetByID(ctx, id)
}

// Assign routes the order to a user.
func (s *Service) Assign(ctx context.Context, id int64, req AssignRequest, actor shared.Actor) (*Order, error) {
	if req.AssignedTo <= 0 {
		return nil, ErrAssigneeRequired
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrder(ctx, id, map[string]interface{}{"assigned_to": req.AssignedTo})
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "dc.assign", id, map[string]any{"assigned_to": req.AssignedTo})

	return s.repo.GetByID(ctx, id)
}

// Submit moves the order into the pending queue. Re-submitting a pending
// order is a no-op.
func (s *Service) Submit(ctx context.Context, id int64, actor shared.Actor) (*Order, error) {
	return s.transition(ctx, id, StatusPending, nil, actor, "dc.submit")
}

// MarkInTransit dispatches a pending order.
func (s *Service) MarkInTransit(ctx context.Context, id int64, actor shared.Actor) (*Order, error) {
	return s.transition(ctx, id, StatusInTransit, nil, actor, "dc.in_transit")
}

// Complete closes out an in-transit delivery, records proof, and issues
// stock for each line. The locked read, the shortage check and the
// status write share one transaction: a failed issue leaves the order
// in_transit so the delivery can be retried.
func (s *Service) Complete(ctx context.Context, id int64, req CompleteRequest, actor shared.Actor) (*Order, error) {
	deliveredAt := s.now()
	if req.ActualDeliveryDate != nil {
		deliveredAt = *req.ActualDeliveryDate
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(existing.Status, StatusCompleted); err != nil {
			return err
		}

		if s.inventory != nil && len(existing.Lines) > 0 {
			issues := make([]StockIssue, 0, len(existing.Lines))
			for _, line := range existing.Lines {
				if line.Quantity <= 0 {
					continue
				}
				issues = append(issues, StockIssue{
					ItemName: line.Name,
					Quantity: line.Quantity,
					Ref:      fmt.Sprintf("%s-L%d", existing.DCCode, line.LineOrder),
					ActorID:  actor.ID,
				})
			}
			if err := s.inventory.Issue(ctx, issues); err != nil {
				return fmt.Errorf("issue stock: %w", err)
			}
		}

		updates := map[string]interface{}{
			"actual_delivery_date": deliveredAt,
			"completed_by":         actor.ID,
		}
		if req.PODProofURL != nil {
			updates["pod_proof_url"] = req.PODProofURL
		}
		return tx.UpdateStatus(ctx, id, StatusCompleted, updates)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, "dc.complete", id, map[string]any{"delivered_at": deliveredAt})

	return s.repo.GetByID(ctx, id)
}

// Hold parks the order. The hold notes overwrite remarks; callers who want
// the old remarks preserved must re-supply them.
func (s *Service) Hold(ctx context.Context, id int64, req HoldRequest, actor shared.Actor) (*Order, error) {
	updates := map[string]interface{}{"remarks": req.HoldNotes}
	return s.transition(ctx, id, StatusHold, updates, actor, "dc.hold")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, updates map[string]interface{}, actor shared.Actor, action string) (*Order, error) {
	var from Status
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(existing.Status, target); err != nil {
			return err
		}
		from = existing.Status
		return tx.UpdateStatus(ctx, id, target, updates)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor.ID, action, id, map[string]any{"from": from, "to": target})

	return s.repo.GetByID(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "dc_order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
	})
}
