package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quota unit statuses (closed set; every consumption site switches over these).
const (
	UnitAvailable = "available"
	UnitReserved  = "reserved"
	UnitSold      = "sold"
	UnitBlocked   = "blocked"
)

// QuotaUnit is the per-unit view of the ledger: one row per quota number.
// Units are created alongside the ledger and assigned lowest-number-first by
// the allocation engine, always inside the same transaction that updates the
// aggregate counts, so the two shapes cannot drift. Occupancy fields are set
// iff the status matches (reserved_by only while reserved, sold_to only once
// sold).
type QuotaUnit struct {
	UnitID        uuid.UUID  `gorm:"column:unit_id;type:uuid;primaryKey" json:"unit_id"`
	PropertyID    uuid.UUID  `gorm:"column:property_id;type:uuid;not null;uniqueIndex:idx_property_quota_number" json:"property_id"`
	QuotaNumber   int        `gorm:"column:quota_number;not null;uniqueIndex:idx_property_quota_number" json:"quota_number"`
	Status        string     `gorm:"column:status;type:varchar(20);not null;default:'available'" json:"status"`
	ReservationID *uuid.UUID `gorm:"column:reservation_id;type:uuid" json:"reservation_id"`
	ReservedBy    *uuid.UUID `gorm:"column:reserved_by;type:uuid" json:"reserved_by"`
	SoldTo        *uuid.UUID `gorm:"column:sold_to;type:uuid" json:"sold_to"`
	ReservedAt    *time.Time `gorm:"column:reserved_at" json:"reserved_at"`
	SoldAt        *time.Time `gorm:"column:sold_at" json:"sold_at"`
	CreatedAt     time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (QuotaUnit) TableName() string {
	return "QuotaUnits"
}

func (u *QuotaUnit) BeforeCreate(tx *gorm.DB) error {
	if u.UnitID == uuid.Nil {
		u.UnitID = uuid.New()
	}
	return nil
}

// MarkReserved sets reservation occupancy fields.
func (u *QuotaUnit) MarkReserved(reservationID, userID uuid.UUID, at time.Time) {
	u.Status = UnitReserved
	u.ReservationID = &reservationID
	u.ReservedBy = &userID
	u.ReservedAt = &at
}

// MarkAvailable clears all occupancy fields.
func (u *QuotaUnit) MarkAvailable() {
	u.Status = UnitAvailable
	u.ReservationID = nil
	u.ReservedBy = nil
	u.SoldTo = nil
	u.ReservedAt = nil
	u.SoldAt = nil
}

// MarkSold converts a reserved unit; the holder moves from reserved_by to sold_to.
func (u *QuotaUnit) MarkSold(at time.Time) {
	u.Status = UnitSold
	u.SoldTo = u.ReservedBy
	u.ReservedBy = nil
	u.ReservedAt = nil
	u.SoldAt = &at
}

// MarkBlocked puts an available unit on administrative hold.
func (u *QuotaUnit) MarkBlocked() {
	u.Status = UnitBlocked
	u.ReservationID = nil
	u.ReservedBy = nil
	u.SoldTo = nil
	u.ReservedAt = nil
	u.SoldAt = nil
}
