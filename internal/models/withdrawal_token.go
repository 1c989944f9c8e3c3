package models

import "time"

// WithdrawalToken is a single-use claim a seller redeems to collect released
// escrow funds. Only the SHA-256 of the secret is stored; the plaintext is
// returned exactly once at issuance. ConsumedAt flips exactly once under a
// compare-and-swap so concurrent redemptions have a single winner.
type WithdrawalToken struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string     `json:"order_id" gorm:"uniqueIndex;type:varchar(36)"`
	SellerID    string     `json:"seller_id" gorm:"index;type:varchar(36)"`
	AmountCents int64      `json:"amount_cents"`
	SecretHash  string     `json:"-" gorm:"uniqueIndex;type:varchar(64)"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConsumedAt  *time.Time `json:"consumed_at,omitempty"`
}
