package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/shared"
)

// Auditor records stock movements.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock operations. All posting goes through one
// transactional path so the balance check and the movement commit
// together.
type Service struct {
	repo  Repository
	audit Auditor
	now   func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
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

// ReceiveInput describes stock arriving at the warehouse.
type ReceiveInput struct {
	ItemName string
	Quantity float64
	UOM      *string
	Ref      *string
	Note     *string
	ActorID  int64
}

// IssueInput describes stock leaving the warehouse.
type IssueInput struct {
	ItemName string
	Quantity float64
	Ref      *string
	Note     *string
	ActorID  int64
}

// ListStock returns current balances, optionally filtered by item name.
func (s *Service) ListStock(ctx context.Context, query string) ([]Stock, error) {
	return s.repo.ListStock(ctx, query)
}

// GetStock returns the balance for one item.
func (s *Service) GetStock(ctx context.Context, itemName string) (*Stock, error) {
	if itemName == "" {
		return nil, ErrItemRequired
	}
	return s.repo.GetStock(ctx, itemName)
}

// Movements returns recent movements for an item.
func (s *Service) Movements(ctx context.Context, itemName string, limit int) ([]Movement, error) {
	if itemName == "" {
		return nil, ErrItemRequired
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.repo.ListMovements(ctx, itemName, limit)
}

// Receive posts an inbound movement. A balance row is created on first
// receipt of an item.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (*Stock, error) {
	if input.ItemName == "" {
		return nil, ErrItemRequired
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *Stock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current := 0.0
		uom := input.UOM
		existing, err := tx.GetStockForUpdate(ctx, input.ItemName)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}
		if existing != nil {
			current = existing.Quantity
			if uom == nil {
				uom = existing.UOM
			}
		}

		newQty := current + input.Quantity
		if err := tx.UpsertStock(ctx, input.ItemName, newQty, uom); err != nil {
			return err
		}

		_, err = tx.InsertMovement(ctx, Movement{
			ItemName: input.ItemName,
			Type:     MovementReceive,
			Quantity: input.Quantity,
			Ref:      input.Ref,
			Note:     input.Note,
			ActorID:  input.ActorID,
			PostedAt: s.now(),
		})
		if err != nil {
			return err
		}

		updated = &Stock{ItemName: input.ItemName, Quantity: newQty, UOM: uom, UpdatedAt: s.now()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, input.ActorID, "inventory.receive", input.ItemName, input.Quantity, input.Ref)

	return updated, nil
}

// Issue posts an outbound movement. Stock never goes below zero; an
// issue exceeding the balance fails the whole transaction.
func (s *Service) Issue(ctx context.Context, input IssueInput) (*Stock, error) {
	if input.ItemName == "" {
		return nil, ErrItemRequired
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var updated *Stock
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetStockForUpdate(ctx, input.ItemName)
		if err != nil {
			if errors.Is(err, ErrStockNotFound) {
				return fmt.Errorf("%w: %s has no stock", ErrInsufficientStock, input.ItemName)
			}
			return err
		}

		newQty := existing.Quantity - input.Quantity
		if newQty < 0 {
			return fmt.Errorf("%w: %s has %.2f, need %.2f", ErrInsufficientStock,
				input.ItemName, existing.Quantity, input.Quantity)
		}

		if err := tx.UpsertStock(ctx, input.ItemName, newQty, existing.UOM); err != nil {
			return err
		}

		_, err = tx.InsertMovement(ctx, Movement{
			ItemName: input.ItemName,
			Type:     MovementIssue,
			Quantity: input.Quantity,
			Ref:      input.Ref,
			Note:     input.Note,
			ActorID:  input.ActorID,
			PostedAt: s.now(),
		})
		if err != nil {
			return err
		}

		updated = &Stock{ItemName: input.ItemName, Quantity: newQty, UOM: existing.UOM, UpdatedAt: s.now()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, input.ActorID, "inventory.issue", input.ItemName, input.Quantity, input.Ref)

	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, itemName string, qty float64, ref *string) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{"item_name": itemName, "quantity": qty}
	if ref != nil {
		meta["ref"] = *ref
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventory",
		EntityID: itemName,
		Meta:     meta,
		At:       s.now(),
	})
}

// DCClient adapts the service to the issue hook delivery completion
// calls. Lines issue one by one; the first shortage aborts the rest.
type DCClient struct {
	service *Service
}

// NewDCClient wraps the service for use by the delivery workflow.
func NewDCClient(service *Service) *DCClient {
	return &DCClient{service: service}
}

// Issue posts every stock issue in order.
func (c *DCClient) Issue(ctx context.Context, issues []dc.StockIssue) error {
	for _, issue := range issues {
		ref := issue.Ref
		_, err := c.service.Issue(ctx, IssueInput{
			ItemName: issue.ItemName,
			Quantity: issue.Quantity,
			Ref:      &ref,
			ActorID:  issue.ActorID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
