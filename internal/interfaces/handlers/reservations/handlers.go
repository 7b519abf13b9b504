package reservations

import (
	"vivenda-backend/internal/application/allocation"
	ressvc "vivenda-backend/internal/application/reservations"
	"vivenda-backend/internal/domain"
	"vivenda-backend/internal/middleware"
	"vivenda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds the reservation query service and the allocation engine
// (the engine owns every state change).
type Handlers struct {
	Service    *ressvc.Service
	Allocation *allocation.Service
}

type createRequest struct {
	PropertyID string `json:"property_id"`
	Quantity   int    `json:"quantity"`
}

// CreateReservation POST /api/v1/reservations/create-reservation.
func (h *Handlers) CreateReservation(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "property_id and quantity are required", fiber.StatusBadRequest, nil)
	}
	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		return response.Error(c, "Invalid property ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	actor, ok := sessionActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	r, err := h.Allocation.RequestReservation(c.Context(), propertyID, actor.UserID, req.Quantity)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Reservation created successfully", fiber.Map{"reservation": r}, nil)
}

type decideRequest struct {
	ReservationID string `json:"reservation_id"`
}

// ApproveReservation POST /api/v1/reservations/approve-reservation.
func (h *Handlers) ApproveReservation(c *fiber.Ctx) error {
	return h.decide(c, domain.DecisionApprove, "Reservation approved successfully")
}

// RejectReservation POST /api/v1/reservations/reject-reservation.
func (h *Handlers) RejectReservation(c *fiber.Ctx) error {
	return h.decide(c, domain.DecisionReject, "Reservation rejected successfully")
}

// CancelReservation POST /api/v1/reservations/cancel-reservation. Only the
// requester may cancel; the engine enforces it.
func (h *Handlers) CancelReservation(c *fiber.Ctx) error {
	return h.decide(c, domain.DecisionCancel, "Reservation cancelled successfully")
}

func (h *Handlers) decide(c *fiber.Ctx, decision domain.Decision, okMsg string) error {
	var req decideRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "reservation_id is required", fiber.StatusBadRequest, nil)
	}
	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return response.Error(c, "Invalid reservation ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	actor, ok := sessionActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	r, err := h.Allocation.Decide(c.Context(), reservationID, decision, actor)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, okMsg, fiber.Map{"reservation": r}, nil)
}

// MyReservations GET /api/v1/reservations/my-reservations.
func (h *Handlers) MyReservations(c *fiber.Ctx) error {
	actor, ok := sessionActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	rows, err := h.Service.ListByUser(c.Context(), actor.UserID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Reservations retrieved successfully", fiber.Map{"reservations": rows}, nil)
}

// PendingReservations GET /api/v1/reservations/pending-reservations.
func (h *Handlers) PendingReservations(c *fiber.Ctx) error {
	rows, err := h.Service.ListPending(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Pending reservations retrieved successfully", fiber.Map{"reservations": rows}, nil)
}

// GetReservation GET /api/v1/reservations/get-reservation/:id. Visible to
// the requester and to deciders.
func (h *Handlers) GetReservation(c *fiber.Ctx) error {
	reservationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid reservation ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	actor, ok := sessionActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	r, err := h.Service.GetByID(c.Context(), reservationID, actor.UserID, actor.Role)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Reservation retrieved successfully", fiber.Map{"reservation": r}, nil)
}

func sessionActor(c *fiber.Ctx) (allocation.Actor, bool) {
	u := middleware.GetUser(c)
	m, ok := u.(map[string]interface{})
	if !ok {
		return allocation.Actor{}, false
	}
	idStr, _ := m["user_id"].(string)
	role, _ := m["role"].(string)
	id, err := uuid.Parse(idStr)
	if err != nil || role == "" {
		return allocation.Actor{}, false
	}
	return allocation.Actor{UserID: id, Role: role}, true
}
