package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuotaLedger is the authoritative inventory record for one property: how many
// fractional quotas exist and how many are sold, reserved or blocked. The
// available count is always derived, never stored. All mutations go through
// the allocation engine; each successful mutation bumps Version so concurrent
// writers are detected on save.
type QuotaLedger struct {
	LedgerID       uuid.UUID `gorm:"column:ledger_id;type:uuid;primaryKey" json:"ledger_id"`
	PropertyID     uuid.UUID `gorm:"column:property_id;type:uuid;not null;uniqueIndex" json:"property_id"`
	TotalQuotas    int       `gorm:"column:total_quotas;not null" json:"total_quotas"`
	QuotaValue     float64   `gorm:"column:quota_value;type:decimal(18,2);not null" json:"quota_value"`
	SoldQuotas     int       `gorm:"column:sold_quotas;not null;default:0" json:"sold_quotas"`
	ReservedQuotas int       `gorm:"column:reserved_quotas;not null;default:0" json:"reserved_quotas"`
	BlockedQuotas  int       `gorm:"column:blocked_quotas;not null;default:0" json:"blocked_quotas"`
	Version        int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt      time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (QuotaLedger) TableName() string {
	return "QuotaLedgers"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (l *QuotaLedger) BeforeCreate(tx *gorm.DB) error {
	if l.LedgerID == uuid.Nil {
		l.LedgerID = uuid.New()
	}
	return nil
}

// NewQuotaLedger creates a ledger with all counts zero.
func NewQuotaLedger(propertyID uuid.UUID, totalQuotas int, quotaValue float64) (*QuotaLedger, error) {
	if totalQuotas <= 0 {
		return nil, fmt.Errorf("%w: total_quotas must be positive", ErrInvalidArgument)
	}
	if quotaValue <= 0 {
		return nil, fmt.Errorf("%w: quota_value must be positive", ErrInvalidArgument)
	}
	return &QuotaLedger{
		LedgerID:    uuid.New(),
		PropertyID:  propertyID,
		TotalQuotas: totalQuotas,
		QuotaValue:  quotaValue,
	}, nil
}

// AvailableQuotas is derived from the stored counts.
func (l *QuotaLedger) AvailableQuotas() int {
	return l.TotalQuotas - l.SoldQuotas - l.ReservedQuotas - l.BlockedQuotas
}

// Reserve moves quantity from available to reserved.
func (l *QuotaLedger) Reserve(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if quantity > l.AvailableQuotas() {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientInventory, quantity, l.AvailableQuotas())
	}
	l.ReservedQuotas += quantity
	l.Version++
	return nil
}

// Release reverses a prior reservation.
func (l *QuotaLedger) Release(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if quantity > l.ReservedQuotas {
		return fmt.Errorf("%w: release of %d exceeds reserved %d", ErrInvariantViolation, quantity, l.ReservedQuotas)
	}
	l.ReservedQuotas -= quantity
	l.Version++
	return nil
}

// ConfirmSale moves quantity from reserved to sold.
func (l *QuotaLedger) ConfirmSale(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if quantity > l.ReservedQuotas {
		return fmt.Errorf("%w: sale of %d exceeds reserved %d", ErrInvariantViolation, quantity, l.ReservedQuotas)
	}
	l.ReservedQuotas -= quantity
	l.SoldQuotas += quantity
	l.Version++
	return nil
}

// Block removes quantity from the available pool without a reservation
// (administrative hold, e.g. units kept back from sale).
func (l *QuotaLedger) Block(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if quantity > l.AvailableQuotas() {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientInventory, quantity, l.AvailableQuotas())
	}
	l.BlockedQuotas += quantity
	l.Version++
	return nil
}

// Unblock returns quantity from the blocked pool to available.
func (l *QuotaLedger) Unblock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if quantity > l.BlockedQuotas {
		return fmt.Errorf("%w: unblock of %d exceeds blocked %d", ErrInvariantViolation, quantity, l.BlockedQuotas)
	}
	l.BlockedQuotas -= quantity
	l.Version++
	return nil
}

// CanDelete: a ledger with sold quotas must never be deleted.
func (l *QuotaLedger) CanDelete() bool {
	return l.SoldQuotas == 0
}
