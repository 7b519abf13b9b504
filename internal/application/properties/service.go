package properties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vivenda-backend/internal/application/simulation"
	"vivenda-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type CreatePropertyInput struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	LocationCity     string  `json:"location_city"`
	LocationState    string  `json:"location_state"`
	LocationCountry  string  `json:"location_country"`
	ThumbnailURL     string  `json:"thumbnail_url"`
	AnnualROIPercent float64 `json:"annual_roi_percent"`
	TotalQuotas      int     `json:"total_quotas"`
	QuotaValue       float64 `json:"quota_value"`
}

// PropertyView is a property plus its current ledger counts.
type PropertyView struct {
	domain.Property
	Ledger LedgerCounts `json:"ledger"`
}

type LedgerCounts struct {
	TotalQuotas     int     `json:"total_quotas"`
	QuotaValue      float64 `json:"quota_value"`
	SoldQuotas      int     `json:"sold_quotas"`
	ReservedQuotas  int     `json:"reserved_quotas"`
	BlockedQuotas   int     `json:"blocked_quotas"`
	AvailableQuotas int     `json:"available_quotas"`
}

// CreateProperty registers a property with its ledger and per-unit rows in
// one transaction.
func (s *Service) CreateProperty(ctx context.Context, in CreatePropertyInput) (*domain.Property, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(in.LocationCity) == "" || strings.TrimSpace(in.LocationCountry) == "" {
		return nil, fmt.Errorf("%w: location is required", domain.ErrInvalidArgument)
	}

	property := &domain.Property{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		LocationCity:     strings.TrimSpace(in.LocationCity),
		LocationState:    strings.TrimSpace(in.LocationState),
		LocationCountry:  strings.TrimSpace(in.LocationCountry),
		ThumbnailURL:     in.ThumbnailURL,
		AnnualROIPercent: in.AnnualROIPercent,
		Status:           domain.PropertyActive,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(property).Error; err != nil {
			return err
		}
		ledger, err := domain.NewQuotaLedger(property.PropertyID, in.TotalQuotas, in.QuotaValue)
		if err != nil {
			return err
		}
		if err := tx.Create(ledger).Error; err != nil {
			return err
		}
		units := make([]domain.QuotaUnit, in.TotalQuotas)
		for n := 0; n < in.TotalQuotas; n++ {
			units[n] = domain.QuotaUnit{
				UnitID:      uuid.New(),
				PropertyID:  property.PropertyID,
				QuotaNumber: n + 1,
				Status:      domain.UnitAvailable,
			}
		}
		if err := tx.CreateInBatches(units, 200).Error; err != nil {
			return err
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"total_quotas": in.TotalQuotas,
			"quota_value":  in.QuotaValue,
		})
		return tx.Create(&domain.LedgerEvent{
			PropertyID: property.PropertyID,
			EventType:  domain.EventLedgerCreated,
			EventData:  datatypes.JSON(payload),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

// GetAllProperties returns every property with its ledger counts.
func (s *Service) GetAllProperties(ctx context.Context) ([]PropertyView, error) {
	var props []domain.Property
	if err := s.DB.WithContext(ctx).Order(`"createdAt" DESC`).Find(&props).Error; err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return []PropertyView{}, nil
	}

	ids := make([]uuid.UUID, len(props))
	for i, p := range props {
		ids[i] = p.PropertyID
	}
	var ledgers []domain.QuotaLedger
	if err := s.DB.WithContext(ctx).Where("property_id IN ?", ids).Find(&ledgers).Error; err != nil {
		return nil, err
	}
	byProperty := make(map[uuid.UUID]*domain.QuotaLedger, len(ledgers))
	for i := range ledgers {
		byProperty[ledgers[i].PropertyID] = &ledgers[i]
	}

	out := make([]PropertyView, len(props))
	for i, p := range props {
		out[i] = PropertyView{Property: p}
		if l, ok := byProperty[p.PropertyID]; ok {
			out[i].Ledger = counts(l)
		}
	}
	return out, nil
}

// GetProperty returns one property, its ledger counts and a 12-month
// projection for a single quota at the property's expected ROI.
func (s *Service) GetProperty(ctx context.Context, propertyID uuid.UUID) (*PropertyView, *simulation.Result, error) {
	var property domain.Property
	if err := s.DB.WithContext(ctx).Where("property_id = ?", propertyID).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, propertyID)
		}
		return nil, nil, err
	}
	var ledger domain.QuotaLedger
	if err := s.DB.WithContext(ctx).Where("property_id = ?", propertyID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: ledger for property %s", domain.ErrNotFound, propertyID)
		}
		return nil, nil, err
	}

	view := &PropertyView{Property: property, Ledger: counts(&ledger)}

	projection, err := simulation.Project(simulation.Input{
		InitialAmount:    ledger.QuotaValue,
		PeriodMonths:     12,
		AnnualROIPercent: property.AnnualROIPercent,
	})
	if err != nil {
		return nil, nil, err
	}
	return view, &projection, nil
}

// DeleteProperty removes a property and its inventory. Refused while any
// quota is sold.
func (s *Service) DeleteProperty(ctx context.Context, propertyID uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ledger domain.QuotaLedger
		if err := tx.Where("property_id = ?", propertyID).First(&ledger).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: property %s", domain.ErrNotFound, propertyID)
			}
			return err
		}
		if !ledger.CanDelete() {
			return fmt.Errorf("%w: property has %d sold quotas", domain.ErrConflict, ledger.SoldQuotas)
		}
		if err := tx.Where("property_id = ?", propertyID).Delete(&domain.QuotaUnit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", propertyID).Delete(&domain.QuotaLedger{}).Error; err != nil {
			return err
		}
		if err := tx.Where("property_id = ?", propertyID).Delete(&domain.LedgerEvent{}).Error; err != nil {
			return err
		}
		return tx.Where("property_id = ?", propertyID).Delete(&domain.Property{}).Error
	})
}

// GetLedgerEvents lists the audit trail for a property, newest first.
func (s *Service) GetLedgerEvents(ctx context.Context, propertyID uuid.UUID) ([]domain.LedgerEvent, error) {
	var events []domain.LedgerEvent
	if err := s.DB.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order(`"createdAt" DESC`).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func counts(l *domain.QuotaLedger) LedgerCounts {
	return LedgerCounts{
		TotalQuotas:     l.TotalQuotas,
		QuotaValue:      l.QuotaValue,
		SoldQuotas:      l.SoldQuotas,
		ReservedQuotas:  l.ReservedQuotas,
		BlockedQuotas:   l.BlockedQuotas,
		AvailableQuotas: l.AvailableQuotas(),
	}
}
