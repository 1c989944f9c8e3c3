package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
	"hanythrift/pkg/rabbitmq"
)

// DisputeService freezes fund release for contested orders and routes them to
// manual resolution. The order's Delivered→Disputed transition is the
// serialization point: its version compare-and-swap guarantees a dispute and a
// confirmation can never both win on the same order.
type DisputeService struct {
	disputeRepo      repositories.DisputeRepository
	orderRepo        repositories.OrderRepository
	mqClient         *rabbitmq.Client
	protectionWindow time.Duration
	sellerWindow     time.Duration
}

// NewDisputeService creates a new DisputeService.
func NewDisputeService(disputeRepo repositories.DisputeRepository, orderRepo repositories.OrderRepository, mqClient *rabbitmq.Client, protectionWindow, sellerWindow time.Duration) *DisputeService {
	return &DisputeService{
		disputeRepo:      disputeRepo,
		orderRepo:        orderRepo,
		mqClient:         mqClient,
		protectionWindow: protectionWindow,
		sellerWindow:     sellerWindow,
	}
}

// Open raises a dispute on a delivered order and moves it to Disputed, which
// halts any fund release. Only the buyer may open one, only while the order is
// Delivered and the protection window is still open.
func (s *DisputeService) Open(buyerID, orderID, issueType, description, requestedResolution string) (*models.Dispute, error) {
	if !models.ValidIssueType(issueType) {
		return nil, fmt.Errorf("unknown issue type %q: %w", issueType, apperr.ErrInvalidState)
	}
	if !models.ValidResolution(requestedResolution) {
		return nil, fmt.Errorf("unknown requested resolution %q: %w", requestedResolution, apperr.ErrInvalidState)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrNotFound)
	}
	if order.State != models.StateDelivered {
		return nil, fmt.Errorf("cannot dispute order in state %s: %w", order.State, apperr.ErrInvalidState)
	}
	if order.DeliveredAt == nil {
		return nil, fmt.Errorf("order %s has no delivery timestamp: %w", orderID, apperr.ErrInvalidState)
	}
	now := time.Now()
	if now.After(order.DeliveredAt.Add(s.protectionWindow)) {
		return nil, fmt.Errorf("protection window closed for order %s: %w", orderID, apperr.ErrWindowExpired)
	}
	if order.DisputeID != "" {
		return nil, fmt.Errorf("order %s is already disputed: %w", orderID, apperr.ErrConflict)
	}

	disputeID := uuid.New().String()
	expectedVersion := order.Version
	order.State = models.StateDisputed
	order.DisputeID = disputeID
	event := models.OrderEvent{
		FromState: models.StateDelivered,
		ToState:   models.StateDisputed,
		Actor:     buyerID,
		Note:      "dispute opened: " + issueType,
	}
	if err := s.orderRepo.Transition(order, expectedVersion, []models.OrderEvent{event}); err != nil {
		return nil, err
	}

	dispute := &models.Dispute{
		ID:                  disputeID,
		OrderID:             orderID,
		RaisedBy:            buyerID,
		IssueType:           issueType,
		Description:         description,
		RequestedResolution: requestedResolution,
		State:               models.DisputeOpen,
		RespondBy:           now.Add(s.sellerWindow),
	}
	if err := s.disputeRepo.Create(dispute); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.EventDisputeOpened, orderID, map[string]interface{}{
		"dispute_id": dispute.ID,
		"issue_type": issueType,
	})
	return dispute, nil
}

// Get returns a dispute visible to its buyer or the order's seller, with lazy
// escalation applied: past the seller response deadline an open dispute reads
// as AdminReview.
func (s *DisputeService) Get(userID, disputeID string) (*models.Dispute, error) {
	dispute, err := s.disputeRepo.GetByID(disputeID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(dispute.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID() != userID {
		return nil, fmt.Errorf("dispute %s: %w", disputeID, apperr.ErrNotFound)
	}
	s.escalateIfOverdue(dispute)
	return dispute, nil
}

// SellerRespond records the seller's answer and advances the dispute. Past the
// response deadline the dispute has already escalated and the response is
// rejected.
func (s *DisputeService) SellerRespond(sellerID, disputeID, response string) (*models.Dispute, error) {
	dispute, err := s.disputeRepo.GetByID(disputeID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(dispute.OrderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID() != sellerID {
		return nil, fmt.Errorf("dispute %s: %w", disputeID, apperr.ErrNotFound)
	}

	s.escalateIfOverdue(dispute)
	if dispute.State != models.DisputeOpen {
		return nil, fmt.Errorf("cannot respond to dispute in state %s: %w", dispute.State, apperr.ErrInvalidState)
	}

	dispute.State = models.DisputeSellerResponded
	dispute.SellerResponse = response
	if err := s.disputeRepo.Update(dispute); err != nil {
		return nil, err
	}
	return dispute, nil
}

// Resolve is the admin-only terminal step. A Refund outcome returns the full
// order total to the buyer and refunds the order; PartialRefund returns the
// given amount and releases the remainder to the seller; Replacement releases
// in full.
func (s *DisputeService) Resolve(disputeID, outcome string, refundCents int64) (*models.Dispute, error) {
	if !models.ValidResolution(outcome) {
		return nil, fmt.Errorf("unknown outcome %q: %w", outcome, apperr.ErrInvalidState)
	}

	dispute, err := s.disputeRepo.GetByID(disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.State == models.DisputeResolved {
		return nil, fmt.Errorf("dispute %s already resolved: %w", disputeID, apperr.ErrInvalidState)
	}

	order, err := s.orderRepo.GetByID(dispute.OrderID)
	if err != nil {
		return nil, err
	}
	if order.State != models.StateDisputed {
		return nil, fmt.Errorf("order %s is in state %s, not disputed: %w", order.ID, order.State, apperr.ErrInvalidState)
	}

	var toState models.EscrowState
	switch outcome {
	case models.ResolutionRefund:
		toState = models.StateRefunded
		refundCents = order.TotalCents
	case models.ResolutionPartialRefund:
		if refundCents <= 0 || refundCents >= order.TotalCents {
			return nil, fmt.Errorf("partial refund must split the order total: %w", apperr.ErrInvalidQuantity)
		}
		toState = models.StateReleased
	case models.ResolutionReplacement:
		toState = models.StateReleased
		refundCents = 0
	}

	expectedVersion := order.Version
	order.State = toState
	event := models.OrderEvent{
		FromState: models.StateDisputed,
		ToState:   toState,
		Actor:     "admin",
		Note:      "dispute resolved: " + outcome,
	}
	if err := s.orderRepo.Transition(order, expectedVersion, []models.OrderEvent{event}); err != nil {
		return nil, err
	}

	now := time.Now()
	dispute.State = models.DisputeResolved
	dispute.Outcome = outcome
	dispute.RefundCents = refundCents
	dispute.ResolvedAt = &now
	if err := s.disputeRepo.Update(dispute); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.EventDisputeResolved, order.ID, map[string]interface{}{
		"dispute_id":   dispute.ID,
		"outcome":      outcome,
		"refund_cents": refundCents,
	})
	if toState == models.StateRefunded {
		s.publish(rabbitmq.EventOrderRefunded, order.ID, map[string]interface{}{"refund_cents": refundCents})
	} else {
		s.publish(rabbitmq.EventFundsReleased, order.ID, map[string]interface{}{
			"seller_id":    order.SellerID(),
			"amount_cents": order.TotalCents - refundCents,
		})
	}
	return dispute, nil
}

// escalateIfOverdue persists the Open→AdminReview escalation once noticed.
func (s *DisputeService) escalateIfOverdue(dispute *models.Dispute) {
	if dispute.State == models.DisputeOpen && time.Now().After(dispute.RespondBy) {
		dispute.State = models.DisputeAdminReview
		if err := s.disputeRepo.Update(dispute); err != nil {
			log.Printf("Warning: failed to escalate dispute %s: %v", dispute.ID, err)
		}
	}
}

func (s *DisputeService) publish(eventType, orderID string, data interface{}) {
	if s.mqClient == nil {
		return
	}
	if err := s.mqClient.PublishEscrowEvent(eventType, orderID, data); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", eventType, orderID, err)
	}
}
