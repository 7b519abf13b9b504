package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger event types written by the allocation engine.
const (
	EventLedgerCreated   = "CREATED"
	EventQuotasReserved  = "RESERVED"
	EventQuotasReleased  = "RELEASED"
	EventQuotasSold      = "SOLD"
	EventQuotasBlocked   = "BLOCKED"
	EventQuotasUnblocked = "UNBLOCKED"
)

// LedgerEvent is an append-only audit row recorded in the same transaction as
// the ledger mutation it describes.
type LedgerEvent struct {
	EventID       uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	PropertyID    uuid.UUID      `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	ReservationID *uuid.UUID     `gorm:"column:reservation_id;type:uuid" json:"reservation_id"`
	EventType     string         `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	ActorID       *uuid.UUID     `gorm:"column:actor_id;type:uuid" json:"actor_id"`
	EventData     datatypes.JSON `gorm:"column:event_data;type:json" json:"event_data"`
	CreatedAt     time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEvent) TableName() string {
	return "LedgerEvents"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
