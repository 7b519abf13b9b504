package reservations

import (
	"context"
	"errors"
	"fmt"

	"vivenda-backend/internal/domain"
	"vivenda-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// FormattedReservation is a reservation enriched with property name and
// thumbnail for list views.
type FormattedReservation struct {
	ReservationID       uuid.UUID                `json:"reservation_id"`
	PropertyID          uuid.UUID                `json:"property_id"`
	UserID              uuid.UUID                `json:"user_id"`
	Quantity            int                      `json:"quantity"`
	QuotaValueAtRequest float64                  `json:"quota_value_at_request"`
	TotalAmount         float64                  `json:"total_amount"`
	Status              domain.ReservationStatus `json:"status"`
	CreatedAt           interface{}              `json:"created_at"`
	DecidedAt           interface{}              `json:"decided_at"`
	PropertyName        *string                  `json:"property_name"`
	PropertyThumbnail   *string                  `json:"property_thumbnail"`
}

// ListByUser returns the user's reservations, newest first. Point-in-time
// query, not restartable.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]FormattedReservation, error) {
	var rows []domain.Reservation
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(`"createdAt" DESC`).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.format(ctx, rows)
}

// ListPending returns all pending reservations for the admin dashboard.
func (s *Service) ListPending(ctx context.Context) ([]FormattedReservation, error) {
	var rows []domain.Reservation
	if err := s.DB.WithContext(ctx).
		Where("status = ?", domain.ReservationPending).
		Order(`"createdAt" ASC`).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.format(ctx, rows)
}

// GetByID returns one reservation. Visible to its owner and to
// administrators only.
func (s *Service) GetByID(ctx context.Context, reservationID, actorID uuid.UUID, actorRole string) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := s.DB.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", domain.ErrNotFound, reservationID)
		}
		return nil, err
	}
	if r.UserID != actorID && !constants.AllowedRole(constants.DecideReservation, actorRole) {
		return nil, fmt.Errorf("%w: reservation belongs to another user", domain.ErrForbidden)
	}
	return &r, nil
}

func (s *Service) format(ctx context.Context, rows []domain.Reservation) ([]FormattedReservation, error) {
	if len(rows) == 0 {
		return []FormattedReservation{}, nil
	}

	propIDs := map[uuid.UUID]bool{}
	for _, r := range rows {
		propIDs[r.PropertyID] = true
	}
	ids := make([]uuid.UUID, 0, len(propIDs))
	for id := range propIDs {
		ids = append(ids, id)
	}

	propMap := map[uuid.UUID]struct {
		Name      string
		Thumbnail string
	}{}
	var props []domain.Property
	s.DB.WithContext(ctx).Where("property_id IN ?", ids).Select("property_id, name, thumbnail_url").Find(&props)
	for _, p := range props {
		propMap[p.PropertyID] = struct {
			Name      string
			Thumbnail string
		}{Name: p.Name, Thumbnail: p.ThumbnailURL}
	}

	out := make([]FormattedReservation, len(rows))
	for i, r := range rows {
		fr := FormattedReservation{
			ReservationID:       r.ReservationID,
			PropertyID:          r.PropertyID,
			UserID:              r.UserID,
			Quantity:            r.Quantity,
			QuotaValueAtRequest: r.QuotaValueAtRequest,
			TotalAmount:         r.TotalAmount,
			Status:              r.Status,
			CreatedAt:           r.CreatedAt,
			DecidedAt:           r.DecidedAt,
		}
		if p, ok := propMap[r.PropertyID]; ok {
			name := p.Name
			thumb := p.Thumbnail
			fr.PropertyName = &name
			fr.PropertyThumbnail = &thumb
		}
		out[i] = fr
	}
	return out, nil
}
