package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vivenda-backend/internal/domain"
	"vivenda-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// maxAttempts bounds the optimistic-concurrency retry loop per operation.
const maxAttempts = 3

// Actor is the authenticated caller applying an allocation operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// Service is the allocation engine: the only component that mutates a quota
// ledger. Every operation is a single unit of work: the ledger, the per-unit
// rows, the reservation and the audit event are written in one transaction or
// not at all. A per-property mutex serializes in-process read-modify-write
// cycles; version-checked saves catch writers from other instances, retried
// up to maxAttempts before the operation surfaces a conflict.
type Service struct {
	DB    *gorm.DB
	locks *propertyLocks
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db, locks: newPropertyLocks()}
}

// LedgerSnapshot is the read-only view handed to property endpoints.
type LedgerSnapshot struct {
	PropertyID      uuid.UUID `json:"property_id"`
	TotalQuotas     int       `json:"total_quotas"`
	QuotaValue      float64   `json:"quota_value"`
	SoldQuotas      int       `json:"sold_quotas"`
	ReservedQuotas  int       `json:"reserved_quotas"`
	BlockedQuotas   int       `json:"blocked_quotas"`
	AvailableQuotas int       `json:"available_quotas"`
}

func snapshotOf(l *domain.QuotaLedger) *LedgerSnapshot {
	return &LedgerSnapshot{
		PropertyID:      l.PropertyID,
		TotalQuotas:     l.TotalQuotas,
		QuotaValue:      l.QuotaValue,
		SoldQuotas:      l.SoldQuotas,
		ReservedQuotas:  l.ReservedQuotas,
		BlockedQuotas:   l.BlockedQuotas,
		AvailableQuotas: l.AvailableQuotas(),
	}
}

// RequestReservation reserves quantity quotas for userID and creates the
// pending reservation, atomically against the property's ledger.
func (s *Service) RequestReservation(ctx context.Context, propertyID, userID uuid.UUID, quantity int) (*domain.Reservation, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}

	unlock := s.locks.lock(propertyID)
	defer unlock()

	var out *domain.Reservation
	err := s.withRetry(ctx, "request_reservation", func(tx *gorm.DB) error {
		ledger, err := loadLedger(tx, propertyID)
		if err != nil {
			return err
		}
		expected := ledger.Version

		if err := ledger.Reserve(quantity); err != nil {
			return err
		}

		reservation, err := domain.NewReservation(propertyID, userID, quantity, ledger.QuotaValue)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := reserveUnits(tx, ledger.PropertyID, reservation, now); err != nil {
			return err
		}
		if err := saveLedger(tx, ledger, expected); err != nil {
			return err
		}
		if err := tx.Create(reservation).Error; err != nil {
			return err
		}
		if err := writeEvent(tx, ledger.PropertyID, &reservation.ReservationID, domain.EventQuotasReserved, &userID, map[string]interface{}{
			"quantity":               quantity,
			"quota_value_at_request": reservation.QuotaValueAtRequest,
			"total_amount":           reservation.TotalAmount,
			"available_after":        ledger.AvailableQuotas(),
		}); err != nil {
			return err
		}
		out = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decide applies approve/reject/cancel to a pending reservation and the
// matching ledger effect. Approve and reject require an administrator; cancel
// is allowed only to the original requester. First writer wins: a racing
// decision fails on the version check without re-applying ledger effects.
func (s *Service) Decide(ctx context.Context, reservationID uuid.UUID, decision domain.Decision, actor Actor) (*domain.Reservation, error) {
	if !domain.ValidDecision(decision) {
		return nil, fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidTransition, string(decision))
	}

	// Property id is immutable on the reservation; a plain read is enough to
	// pick the lock before the transactional re-read.
	var probe domain.Reservation
	if err := s.DB.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&probe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, reservationID)
		}
		return nil, err
	}
	if err := authorizeDecision(decision, actor, &probe); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(probe.PropertyID)
	defer unlock()

	var out *domain.Reservation
	err := s.withRetry(ctx, "decide_reservation", func(tx *gorm.DB) error {
		var reservation domain.Reservation
		if err := tx.Where("reservation_id = ?", reservationID).First(&reservation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: reservation %s", domain.ErrNotFound, reservationID)
			}
			return err
		}
		expectedRes := reservation.Version

		ledger, err := loadLedger(tx, reservation.PropertyID)
		if err != nil {
			return err
		}
		expectedLed := ledger.Version

		now := time.Now()
		if err := reservation.ApplyDecision(decision, now); err != nil {
			return err
		}

		var eventType string
		switch decision {
		case domain.DecisionApprove:
			if err := ledger.ConfirmSale(reservation.Quantity); err != nil {
				return err
			}
			if err := sellUnits(tx, &reservation, now); err != nil {
				return err
			}
			eventType = domain.EventQuotasSold
		case domain.DecisionReject, domain.DecisionCancel:
			if err := ledger.Release(reservation.Quantity); err != nil {
				return err
			}
			if err := releaseUnits(tx, &reservation); err != nil {
				return err
			}
			eventType = domain.EventQuotasReleased
		}

		if err := saveLedger(tx, ledger, expectedLed); err != nil {
			return err
		}
		if err := saveReservation(tx, &reservation, expectedRes); err != nil {
			return err
		}
		if err := writeEvent(tx, reservation.PropertyID, &reservation.ReservationID, eventType, &actor.UserID, map[string]interface{}{
			"decision":        string(decision),
			"quantity":        reservation.Quantity,
			"status":          string(reservation.Status),
			"available_after": ledger.AvailableQuotas(),
		}); err != nil {
			return err
		}
		out = &reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Block removes quantity quotas from the available pool (administrative hold).
func (s *Service) Block(ctx context.Context, propertyID uuid.UUID, quantity int, actor Actor) (*LedgerSnapshot, error) {
	return s.adminHold(ctx, propertyID, quantity, actor, true)
}

// Unblock returns quantity quotas from the blocked pool to available.
func (s *Service) Unblock(ctx context.Context, propertyID uuid.UUID, quantity int, actor Actor) (*LedgerSnapshot, error) {
	return s.adminHold(ctx, propertyID, quantity, actor, false)
}

func (s *Service) adminHold(ctx context.Context, propertyID uuid.UUID, quantity int, actor Actor, block bool) (*LedgerSnapshot, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidArgument)
	}
	if !constants.AllowedRole(constants.BlockQuotas, actor.Role) {
		return nil, fmt.Errorf("%w: role %q may not block or unblock quotas", domain.ErrForbidden, actor.Role)
	}

	unlock := s.locks.lock(propertyID)
	defer unlock()

	var snap *LedgerSnapshot
	op := "block_quotas"
	if !block {
		op = "unblock_quotas"
	}
	err := s.withRetry(ctx, op, func(tx *gorm.DB) error {
		ledger, err := loadLedger(tx, propertyID)
		if err != nil {
			return err
		}
		expected := ledger.Version

		var eventType string
		if block {
			if err := ledger.Block(quantity); err != nil {
				return err
			}
			if err := blockUnits(tx, propertyID, quantity); err != nil {
				return err
			}
			eventType = domain.EventQuotasBlocked
		} else {
			if err := ledger.Unblock(quantity); err != nil {
				return err
			}
			if err := unblockUnits(tx, propertyID, quantity); err != nil {
				return err
			}
			eventType = domain.EventQuotasUnblocked
		}

		if err := saveLedger(tx, ledger, expected); err != nil {
			return err
		}
		if err := writeEvent(tx, propertyID, nil, eventType, &actor.UserID, map[string]interface{}{
			"quantity":        quantity,
			"blocked_after":   ledger.BlockedQuotas,
			"available_after": ledger.AvailableQuotas(),
		}); err != nil {
			return err
		}
		snap = snapshotOf(ledger)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Snapshot returns the current ledger counts for a property.
func (s *Service) Snapshot(ctx context.Context, propertyID uuid.UUID) (*LedgerSnapshot, error) {
	ledger, err := loadLedger(s.DB.WithContext(ctx), propertyID)
	if err != nil {
		return nil, err
	}
	return snapshotOf(ledger), nil
}

// withRetry runs work in a transaction, retrying the whole read-modify-write
// cycle on version conflicts. Any other error aborts immediately; an
// invariant violation is additionally logged because it signals corrupt data,
// not a user mistake.
func (s *Service) withRetry(ctx context.Context, op string, work func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(work)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrInvariantViolation) {
			log.Error().Str("op", op).Err(err).Msg("ledger invariant violation")
			return err
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		log.Warn().Str("op", op).Int("attempt", attempt).Msg("version conflict, retrying")
	}
	return fmt.Errorf("%w: %s after %d attempts", domain.ErrConflict, op, maxAttempts)
}

func authorizeDecision(decision domain.Decision, actor Actor, r *domain.Reservation) error {
	switch decision {
	case domain.DecisionApprove, domain.DecisionReject:
		if !constants.AllowedRole(constants.DecideReservation, actor.Role) {
			return fmt.Errorf("%w: role %q may not %s reservations", domain.ErrForbidden, actor.Role, decision)
		}
	case domain.DecisionCancel:
		if actor.UserID != r.UserID {
			return fmt.Errorf("%w: only the requester may cancel a reservation", domain.ErrForbidden)
		}
	}
	return nil
}

func loadLedger(tx *gorm.DB, propertyID uuid.UUID) (*domain.QuotaLedger, error) {
	var ledger domain.QuotaLedger
	if err := tx.Where("property_id = ?", propertyID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ledger for property %s", domain.ErrNotFound, propertyID)
		}
		return nil, err
	}
	return &ledger, nil
}

// saveLedger persists counts with an expected-version check. RowsAffected 0
// means another writer got there first.
func saveLedger(tx *gorm.DB, l *domain.QuotaLedger, expectedVersion int) error {
	res := tx.Model(&domain.QuotaLedger{}).
		Where("ledger_id = ? AND version = ?", l.LedgerID, expectedVersion).
		Updates(map[string]interface{}{
			"sold_quotas":     l.SoldQuotas,
			"reserved_quotas": l.ReservedQuotas,
			"blocked_quotas":  l.BlockedQuotas,
			"version":         l.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ledger %s", domain.ErrVersionConflict, l.LedgerID)
	}
	return nil
}

func saveReservation(tx *gorm.DB, r *domain.Reservation, expectedVersion int) error {
	res := tx.Model(&domain.Reservation{}).
		Where("reservation_id = ? AND version = ?", r.ReservationID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     string(r.Status),
			"decided_at": r.DecidedAt,
			"version":    r.Version,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: reservation %s", domain.ErrVersionConflict, r.ReservationID)
	}
	return nil
}

// reserveUnits assigns the lowest-numbered available units to the
// reservation. The aggregate reserve already succeeded, so finding fewer free
// units than requested means the two shapes drifted.
func reserveUnits(tx *gorm.DB, propertyID uuid.UUID, r *domain.Reservation, now time.Time) error {
	var units []domain.QuotaUnit
	if err := tx.Where("property_id = ? AND status = ?", propertyID, domain.UnitAvailable).
		Order("quota_number ASC").Limit(r.Quantity).Find(&units).Error; err != nil {
		return err
	}
	if len(units) < r.Quantity {
		return fmt.Errorf("%w: %d available units for aggregate count %d", domain.ErrInvariantViolation, len(units), r.Quantity)
	}
	for i := range units {
		units[i].MarkReserved(r.ReservationID, r.UserID, now)
		if err := tx.Save(&units[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func releaseUnits(tx *gorm.DB, r *domain.Reservation) error {
	var units []domain.QuotaUnit
	if err := tx.Where("reservation_id = ? AND status = ?", r.ReservationID, domain.UnitReserved).
		Find(&units).Error; err != nil {
		return err
	}
	if len(units) != r.Quantity {
		return fmt.Errorf("%w: %d reserved units for reservation quantity %d", domain.ErrInvariantViolation, len(units), r.Quantity)
	}
	for i := range units {
		units[i].MarkAvailable()
		if err := tx.Save(&units[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func sellUnits(tx *gorm.DB, r *domain.Reservation, now time.Time) error {
	var units []domain.QuotaUnit
	if err := tx.Where("reservation_id = ? AND status = ?", r.ReservationID, domain.UnitReserved).
		Find(&units).Error; err != nil {
		return err
	}
	if len(units) != r.Quantity {
		return fmt.Errorf("%w: %d reserved units for reservation quantity %d", domain.ErrInvariantViolation, len(units), r.Quantity)
	}
	for i := range units {
		units[i].MarkSold(now)
		if err := tx.Save(&units[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func blockUnits(tx *gorm.DB, propertyID uuid.UUID, quantity int) error {
	var units []domain.QuotaUnit
	if err := tx.Where("property_id = ? AND status = ?", propertyID, domain.UnitAvailable).
		Order("quota_number ASC").Limit(quantity).Find(&units).Error; err != nil {
		return err
	}
	if len(units) < quantity {
		return fmt.Errorf("%w: %d available units for aggregate count %d", domain.ErrInvariantViolation, len(units), quantity)
	}
	for i := range units {
		units[i].MarkBlocked()
		if err := tx.Save(&units[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func unblockUnits(tx *gorm.DB, propertyID uuid.UUID, quantity int) error {
	var units []domain.QuotaUnit
	if err := tx.Where("property_id = ? AND status = ?", propertyID, domain.UnitBlocked).
		Order("quota_number ASC").Limit(quantity).Find(&units).Error; err != nil {
		return err
	}
	if len(units) < quantity {
		return fmt.Errorf("%w: %d blocked units for aggregate count %d", domain.ErrInvariantViolation, len(units), quantity)
	}
	for i := range units {
		units[i].MarkAvailable()
		if err := tx.Save(&units[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func writeEvent(tx *gorm.DB, propertyID uuid.UUID, reservationID *uuid.UUID, eventType string, actorID *uuid.UUID, payload map[string]interface{}) error {
	b, _ := json.Marshal(payload)
	return tx.Create(&domain.LedgerEvent{
		PropertyID:    propertyID,
		ReservationID: reservationID,
		EventType:     eventType,
		ActorID:       actorID,
		EventData:     datatypes.JSON(b),
	}).Error
}
