package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property statuses.
const (
	PropertyActive   = "active"
	PropertyInactive = "inactive"
)

// Property is the marketable development. Inventory counts live in the
// QuotaLedger keyed by PropertyID; this row carries only descriptive data
// plus the expected annual ROI used by the financial projection view.
type Property struct {
	PropertyID       uuid.UUID `gorm:"column:property_id;type:uuid;primaryKey" json:"property_id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Description      string    `gorm:"column:description" json:"description"`
	LocationCity     string    `gorm:"column:location_city;not null" json:"location_city"`
	LocationState    string    `gorm:"column:location_state;not null" json:"location_state"`
	LocationCountry  string    `gorm:"column:location_country;not null" json:"location_country"`
	ThumbnailURL     string    `gorm:"column:thumbnail_url" json:"thumbnail_url"`
	AnnualROIPercent float64   `gorm:"column:annual_roi_percent;type:decimal(18,2);not null;default:0" json:"annual_roi_percent"`
	Status           string    `gorm:"column:status;type:varchar(20);default:'active'" json:"status"`
	CreatedAt        time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Property) TableName() string {
	return "Properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == uuid.Nil {
		p.PropertyID = uuid.New()
	}
	return nil
}
