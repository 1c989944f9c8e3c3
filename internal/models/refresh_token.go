package models

import "time"

// RefreshToken is the server-side record of an opaque refresh secret. Storing
// it (hashed) rather than signing it stateless keeps rotation and revocation
// enforceable: refreshing marks the row rotated in a compare-and-swap, so a
// stolen already-rotated secret can never mint a second session.
type RefreshToken struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string     `json:"user_id" gorm:"index;type:varchar(36)"`
	SecretHash string     `json:"-" gorm:"uniqueIndex;type:varchar(64)"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RotatedAt  *time.Time `json:"rotated_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Active reports whether the token can still be exchanged for a new pair.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RotatedAt == nil && t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
