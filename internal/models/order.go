package models

import "time"

// OrderItem is a line within an order. UnitPriceCents is snapshotted at
// checkout; later price changes on the product never affect existing orders.
type OrderItem struct {
	ID             uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID        string `json:"-" gorm:"index;type:varchar(36)"`
	ProductID      string `json:"product_id" gorm:"type:varchar(36)"`
	SellerID       string `json:"seller_id" gorm:"index;type:varchar(36)"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Order is the escrow-managed purchase record. Version is the optimistic lock:
// every transition is a compare-and-swap on (id, version), so concurrent
// transition attempts on the same order serialize and losers get a conflict.
type Order struct {
	ID              string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID         string      `json:"buyer_id" gorm:"index;type:varchar(36)"`
	Items           []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	SubtotalCents   int64       `json:"subtotal_cents"`
	ShippingCents   int64       `json:"shipping_cents"`
	ServiceFeeCents int64       `json:"service_fee_cents"`
	TotalCents      int64       `json:"total_cents"`
	State           EscrowState `json:"state" gorm:"index;type:varchar(20)"`
	Version         int         `json:"version"`

	ShippingName    string `json:"shipping_name"`
	ShippingAddress string `json:"shipping_address"`
	ShippingPhone   string `json:"shipping_phone"`
	TrackingNumber  string `json:"tracking_number,omitempty"`
	Carrier         string `json:"carrier,omitempty"`

	DisputeID string `json:"dispute_id,omitempty" gorm:"type:varchar(36)"`
	Rating    int    `json:"rating,omitempty"`
	Feedback  string `json:"feedback,omitempty"`

	DeliveredAt *time.Time `json:"delivered_at,omitempty"` // protection window anchor
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SellerID returns the seller of the first item. Checkout groups items by a
// single seller per order, so all items share one.
func (o *Order) SellerID() string {
	if len(o.Items) == 0 {
		return ""
	}
	return o.Items[0].SellerID
}

// OrderEvent is one entry in an order's append-only timeline. Sequence is
// monotonically increasing per order; the history is never rewritten.
type OrderEvent struct {
	ID        uint        `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID   string      `json:"order_id" gorm:"index;type:varchar(36)"`
	Sequence  int         `json:"sequence"`
	FromState EscrowState `json:"from_state" gorm:"type:varchar(20)"`
	ToState   EscrowState `json:"to_state" gorm:"type:varchar(20)"`
	Actor     string      `json:"actor" gorm:"type:varchar(36)"` // user id or "system"
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
