package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationStatus is a closed enumeration; pending is the only non-terminal state.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationRejected  ReservationStatus = "rejected"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Decision is the event an actor applies to a pending reservation.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionCancel  Decision = "cancel"
)

// ValidDecision reports whether d is one of the three known events.
func ValidDecision(d Decision) bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionCancel:
		return true
	}
	return false
}

// Reservation is a user's in-flight request to hold a quantity of quotas.
// quota_value_at_request snapshots the unit price so later price changes do
// not alter the committed amount. Version backs the expected-prior-state
// check: the first writer to persist a terminal status wins, the second
// observes a version conflict and fails without re-applying ledger effects.
type Reservation struct {
	ReservationID       uuid.UUID         `gorm:"column:reservation_id;type:uuid;primaryKey" json:"reservation_id"`
	PropertyID          uuid.UUID         `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	UserID              uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Quantity            int               `gorm:"column:quantity;not null" json:"quantity"`
	QuotaValueAtRequest float64           `gorm:"column:quota_value_at_request;type:decimal(18,2);not null" json:"quota_value_at_request"`
	TotalAmount         float64           `gorm:"column:total_amount;type:decimal(18,2);not null" json:"total_amount"`
	Status              ReservationStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	Version             int               `gorm:"column:version;not null;default:0" json:"version"`
	DecidedAt           *time.Time        `gorm:"column:decided_at" json:"decided_at"`
	CreatedAt           time.Time         `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt           time.Time         `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Reservation) TableName() string {
	return "Reservations"
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ReservationID == uuid.Nil {
		r.ReservationID = uuid.New()
	}
	return nil
}

// NewReservation builds a pending reservation with the price snapshot taken
// from the ledger at request time.
func NewReservation(propertyID, userID uuid.UUID, quantity int, quotaValue float64) (*Reservation, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if quotaValue <= 0 {
		return nil, fmt.Errorf("%w: quota value must be positive", ErrInvalidArgument)
	}
	return &Reservation{
		ReservationID:       uuid.New(),
		PropertyID:          propertyID,
		UserID:              userID,
		Quantity:            quantity,
		QuotaValueAtRequest: quotaValue,
		TotalAmount:         math.Round(float64(quantity)*quotaValue*100) / 100,
		Status:              ReservationPending,
	}, nil
}

// Terminal reports whether the reservation reached a final state.
func (r *Reservation) Terminal() bool {
	return r.Status != ReservationPending
}

// ApplyDecision transitions pending -> approved|rejected|cancelled. Any event
// against a terminal state, and any unknown event, fails; nothing no-ops.
func (r *Reservation) ApplyDecision(d Decision, now time.Time) error {
	if !ValidDecision(d) {
		return fmt.Errorf("%w: unknown decision %q", ErrInvalidTransition, string(d))
	}
	if r.Status != ReservationPending {
		return fmt.Errorf("%w: reservation is already %s", ErrInvalidTransition, r.Status)
	}
	switch d {
	case DecisionApprove:
		r.Status = ReservationApproved
	case DecisionReject:
		r.Status = ReservationRejected
	case DecisionCancel:
		r.Status = ReservationCancelled
	}
	r.DecidedAt = &now
	r.Version++
	return nil
}
