package models

import "time"

// DisputeState tracks resolution progress of a buyer complaint.
type DisputeState string

const (
	DisputeOpen            DisputeState = "OPEN"
	DisputeSellerResponded DisputeState = "SELLER_RESPONDED"
	DisputeAdminReview     DisputeState = "ADMIN_REVIEW"
	DisputeResolved        DisputeState = "RESOLVED"
)

// Issue categories a buyer can raise, matching the dispute form.
const (
	IssueNotAsDescribed = "not-as-described"
	IssueDamaged        = "damaged"
	IssueWrongItem      = "wrong-item"
	IssueMissingParts   = "missing-parts"
)

// Resolutions a buyer can request and an admin can apply.
const (
	ResolutionRefund        = "refund"
	ResolutionPartialRefund = "partial-refund"
	ResolutionReplacement   = "replacement"
)

// ValidIssueType reports whether the given issue category is one of the known enum values.
func ValidIssueType(issue string) bool {
	switch issue {
	case IssueNotAsDescribed, IssueDamaged, IssueWrongItem, IssueMissingParts:
		return true
	}
	return false
}

// ValidResolution reports whether the given requested resolution is a known enum value.
func ValidResolution(res string) bool {
	switch res {
	case ResolutionRefund, ResolutionPartialRefund, ResolutionReplacement:
		return true
	}
	return false
}

// Dispute freezes an order's fund release until resolved. One dispute per
// order, enforced by the unique index on OrderID.
type Dispute struct {
	ID                  string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID             string       `json:"order_id" gorm:"uniqueIndex;type:varchar(36)"`
	RaisedBy            string       `json:"raised_by" gorm:"type:varchar(36)"` // buyer id
	IssueType           string       `json:"issue_type" gorm:"type:varchar(30)" validate:"required"`
	Description         string       `json:"description" validate:"required,max=2000"`
	RequestedResolution string       `json:"requested_resolution" gorm:"type:varchar(20)" validate:"required"`
	State               DisputeState `json:"state" gorm:"type:varchar(20)"`

	SellerResponse string     `json:"seller_response,omitempty"`
	RespondBy      time.Time  `json:"respond_by"` // past this, the dispute escalates to admin review
	Outcome        string     `json:"outcome,omitempty" gorm:"type:varchar(20)"`
	RefundCents    int64      `json:"refund_cents,omitempty"` // buyer share of the order total
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveState applies lazy escalation: an open dispute whose seller
// response deadline has passed reads as under admin review.
func (d *Dispute) EffectiveState(now time.Time) DisputeState {
	if d.State == DisputeOpen && now.After(d.RespondBy) {
		return DisputeAdminReview
	}
	return d.State
}
