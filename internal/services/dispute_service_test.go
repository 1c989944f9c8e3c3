package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hanythrift/internal/apperr"
	"hanythrift/internal/models"
	"hanythrift/internal/repositories"
	"hanythrift/internal/services"
)

type disputeFixture struct {
	*orderFixture
	disputes *repositories.MockDisputeRepository
	service  *services.DisputeService
}

func newDisputeFixture(t *testing.T, protectionWindow, sellerWindow time.Duration) *disputeFixture {
	t.Helper()
	of := newOrderFixture(t, protectionWindow)
	disputes := repositories.NewMockDisputeRepository()
	return &disputeFixture{
		orderFixture: of,
		disputes:     disputes,
		service:      services.NewDisputeService(disputes, of.orders, nil, protectionWindow, sellerWindow),
	}
}

func TestDisputeService_OpenFreezesOrder(t *testing.T) {
	f := newDisputeFixture(t, 48*time.Hour, 72*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")

	dispute, err := f.service.Open("buyer-1", order.ID, models.IssueDamaged, "sleeve torn on arrival", models.ResolutionRefund)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeOpen, dispute.State)
	assert.Equal(t, order.ID, dispute.OrderID)

	stored, err := f.orderFixture.service.GetOrder("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StateDisputed, stored.State)
	assert.Equal(t, dispute.ID, stored.DisputeID)

	// With the order disputed, confirming receipt is off the table.
	_, err = f.orderFixture.service.BuyerConfirms("buyer-1", order.ID, 5, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// And a second dispute on the same order is rejected.
	_, err = f.service.Open("buyer-1", order.ID, models.IssueDamaged, "still torn", models.ResolutionRefund)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDisputeService_OpenGuards(t *testing.T) {
	f := newDisputeFixture(t, 48*time.Hour, 72*time.Hour)
	p := f.seedProduct(t, "seller-1", 10000, 1)
	order := f.buyNow(t, "buyer-1", p.ID, 1)

	// Not yet delivered.
	_, err := f.service.Open("buyer-1", order.ID, models.IssueDamaged, "broken", models.ResolutionRefund)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// Unknown enum values.
	delivered := f.deliveredOrder(t, "buyer-2", "seller-1")
	_, err = f.service.Open("buyer-2", delivered.ID, "cosmic-rays", "weird", models.ResolutionRefund)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	_, err = f.service.Open("buyer-2", delivered.ID, models.IssueDamaged, "broken", "store-credit")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	// Only the buyer may dispute.
	_, err = f.service.Open("seller-1", delivered.ID, models.IssueDamaged, "broken", models.ResolutionRefund)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDisputeService_OpenAfterWindowExpired(t *testing.T) {
	f := newDisputeFixture(t, -time.Hour, 72*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")

	_, err := f.service.Open("buyer-1", order.ID, models.IssueDamaged, "broken", models.ResolutionRefund)
	assert.ErrorIs(t, err, apperr.ErrWindowExpired)
}

func TestDisputeService_SellerRespond(t *testing.T) {
	f := newDisputeFixture(t, 48*time.Hour, 72*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")
	dispute, err := f.service.Open("buyer-1", order.ID, models.IssueNotAsDescribed, "color is off", models.ResolutionPartialRefund)
	assert.NoError(t, err)

	// A stranger's response is rejected before it is even read.
	_, err = f.service.SellerRespond("seller-2", dispute.ID, "not mine")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	responded, err := f.service.SellerRespond("seller-1", dispute.ID, "photos were accurate, offering partial refund")
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeSellerResponded, responded.State)

	// Responding twice is invalid.
	_, err = f.service.SellerRespond("seller-1", dispute.ID, "again")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDisputeService_EscalatesWhenSellerSilent(t *testing.T) {
	// A negative seller window means the response deadline is already past.
	f := newDisputeFixture(t, 48*time.Hour, -time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")
	dispute, err := f.service.Open("buyer-1", order.ID, models.IssueWrongItem, "got a scarf instead", models.ResolutionRefund)
	assert.NoError(t, err)

	// Reading the dispute escalates it; the late seller response bounces.
	read, err := f.service.Get("buyer-1", dispute.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeAdminReview, read.State)

	_, err = f.service.SellerRespond("seller-1", dispute.ID, "sorry, was away")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDisputeService_ResolveRefund(t *testing.T) {
	f := newDisputeFixture(t, 48*time.Hour, 72*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")
	dispute, err := f.service.Open("buyer-1", order.ID, models.IssueDamaged, "cracked frame", models.ResolutionRefund)
	assert.NoError(t, err)

	resolved, err := f.service.Resolve(dispute.ID, models.ResolutionRefund, 0)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeResolved, resolved.State)
	assert.Equal(t, order.TotalCents, resolved.RefundCents)

	stored, err := f.orderFixture.service.GetOrder("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StateRefunded, stored.State)

	// Resolving twice is invalid.
	_, err = f.service.Resolve(dispute.ID, models.ResolutionRefund, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestDisputeService_ResolvePartialRefund(t *testing.T) {
	f := newDisputeFixture(t, 48*time.Hour, 72*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")
	dispute, err := f.service.Open("buyer-1", order.ID, models.IssueMissingParts, "missing belt", models.ResolutionPartialRefund)
	assert.NoError(t, err)

	// The refund must strictly split the order total.
	_, err = f.service.Resolve(dispute.ID, models.ResolutionPartialRefund, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
	_, err = f.service.Resolve(dispute.ID, models.ResolutionPartialRefund, order.TotalCents)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	resolved, err := f.service.Resolve(dispute.ID, models.ResolutionPartialRefund, 20000)
	assert.NoError(t, err)
	assert.Equal(t, int64(20000), resolved.RefundCents)

	// The remainder goes to the seller: the order ends Released.
	stored, err := f.orderFixture.service.GetOrder("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StateReleased, stored.State)
}

func TestDisputeService_ResolveReplacement(t *testing.T) {
	f := newDisputeFixture(t, 48*time.Hour, 72*time.Hour)
	order := f.deliveredOrder(t, "buyer-1", "seller-1")
	dispute, err := f.service.Open("buyer-1", order.ID, models.IssueWrongItem, "wrong size", models.ResolutionReplacement)
	assert.NoError(t, err)

	resolved, err := f.service.Resolve(dispute.ID, models.ResolutionReplacement, 12345)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), resolved.RefundCents)

	stored, err := f.orderFixture.service.GetOrder("buyer-1", order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StateReleased, stored.State)
}
