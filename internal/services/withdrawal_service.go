package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
	"hanythrift/pkg/rabbitmq"
)

// WithdrawalService converts released escrow funds into a one-time claim for
// the seller. The secret is random, stored only as a hash, valid for a bounded
// time and consumable exactly once.
type WithdrawalService struct {
	withdrawalRepo repositories.WithdrawalRepository
	orderRepo      repositories.OrderRepository
	disputeRepo    repositories.DisputeRepository
	mqClient       *rabbitmq.Client
	tokenTTL       time.Duration
}

// NewWithdrawalService creates a new WithdrawalService.
func NewWithdrawalService(withdrawalRepo repositories.WithdrawalRepository, orderRepo repositories.OrderRepository, disputeRepo repositories.DisputeRepository, mqClient *rabbitmq.Client, tokenTTL time.Duration) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		orderRepo:      orderRepo,
		disputeRepo:    disputeRepo,
		mqClient:       mqClient,
		tokenTTL:       tokenTTL,
	}
}

// Issue mints a withdrawal token for a released order. Fails with InvalidState
// for any other escrow state, including Disputed, so a mistaken issuance
// attempt during a dispute is always rejected. The plaintext secret is
// returned once and never stored.
func (s *WithdrawalService) Issue(sellerID, orderID string) (*models.WithdrawalToken, string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, "", err
	}
	if order.SellerID() != sellerID {
		return nil, "", fmt.Errorf("order %s does not belong to seller %s: %w", orderID, sellerID, apperr.ErrForbidden)
	}
	if order.State != models.StateReleased {
		return nil, "", fmt.Errorf("order %s is in state %s, funds are not released: %w", orderID, order.State, apperr.ErrInvalidState)
	}

	// A resolved partial refund reduces the seller's share of the total. The
	// dispute must be readable; paying the full total because the lookup
	// failed would hand the seller the buyer's refund share.
	amount := order.TotalCents
	if order.DisputeID != "" {
		dispute, err := s.disputeRepo.GetByID(order.DisputeID)
		if err != nil {
			return nil, "", fmt.Errorf("dispute %s for order %s: %w", order.DisputeID, orderID, err)
		}
		amount -= dispute.RefundCents
	}

	// One token per order, but an unconsumed token that aged out must not
	// strand the funds: supersede it. A live or spent token stays exclusive.
	if existing, err := s.withdrawalRepo.GetByOrderID(orderID); err == nil {
		if existing.ConsumedAt != nil {
			return nil, "", fmt.Errorf("withdrawal for order %s already redeemed: %w", orderID, apperr.ErrConflict)
		}
		if time.Now().Before(existing.ExpiresAt) {
			return nil, "", fmt.Errorf("withdrawal token for order %s is still active: %w", orderID, apperr.ErrConflict)
		}
		if err := s.withdrawalRepo.Delete(existing.ID); err != nil {
			return nil, "", err
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, "", fmt.Errorf("failed to generate withdrawal secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	now := time.Now()
	token := &models.WithdrawalToken{
		OrderID:     orderID,
		SellerID:    sellerID,
		AmountCents: amount,
		SecretHash:  hashSecret(secret),
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.tokenTTL),
	}
	if err := s.withdrawalRepo.Create(token); err != nil {
		return nil, "", err
	}
	return token, secret, nil
}

// Redeem pays out a withdrawal token. Consumption is a compare-and-swap in the
// repository, so under concurrent redemptions exactly one caller receives the
// payout and the rest fail with TokenAlreadyUsed.
func (s *WithdrawalService) Redeem(secret string) (*models.WithdrawalToken, error) {
	token, err := s.withdrawalRepo.GetBySecretHash(hashSecret(secret))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("withdrawal token: %w", apperr.ErrAuthInvalid)
		}
		return nil, err
	}
	if time.Now().After(token.ExpiresAt) {
		return nil, fmt.Errorf("withdrawal token %s: %w", token.ID, apperr.ErrTokenExpired)
	}
	if err := s.withdrawalRepo.Consume(token.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	token.ConsumedAt = &now
	s.publishRedeemed(token)
	return token, nil
}

func (s *WithdrawalService) publishRedeemed(token *models.WithdrawalToken) {
	if s.mqClient == nil {
		return
	}
	err := s.mqClient.PublishEscrowEvent(rabbitmq.EventPayoutRedeemed, token.OrderID, map[string]interface{}{
		"seller_id":    token.SellerID,
		"amount_cents": token.AmountCents,
	})
	if err != nil {
		log.Printf("Warning: failed to publish payout event for order %s: %v", token.OrderID, err)
	}
}
