package properties

import (
	"vivenda-backend/internal/application/allocation"
	propsvc "vivenda-backend/internal/application/properties"
	"vivenda-backend/internal/middleware"
	"vivenda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers holds the property service and the allocation engine (ledger
// snapshots and admin block/unblock go through the engine).
type Handlers struct {
	Service    *propsvc.Service
	Allocation *allocation.Service
}

// CreateProperty POST /api/v1/properties/create-property.
func (h *Handlers) CreateProperty(c *fiber.Ctx) error {
	var req propsvc.CreatePropertyInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.CreateProperty(c.Context(), req)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.SuccessCreated(c, "Property created successfully", fiber.Map{"property": p}, nil)
}

// GetAllProperties GET /api/v1/properties/get-all-properties.
func (h *Handlers) GetAllProperties(c *fiber.Ctx) error {
	views, err := h.Service.GetAllProperties(c.Context())
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Properties retrieved successfully", fiber.Map{"properties": views}, nil)
}

// GetProperty GET /api/v1/properties/get-property/:property_id. Includes a
// 12-month single-quota projection for the detail page.
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	propertyID, err := parseID(c, "property_id")
	if err != nil {
		return response.Error(c, "Invalid property ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	view, projection, err := h.Service.GetProperty(c.Context(), propertyID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Property retrieved successfully", fiber.Map{
		"property":   view,
		"projection": projection,
	}, nil)
}

// GetLedger GET /api/v1/properties/get-ledger/:property_id.
func (h *Handlers) GetLedger(c *fiber.Ctx) error {
	propertyID, err := parseID(c, "property_id")
	if err != nil {
		return response.Error(c, "Invalid property ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	snap, err := h.Allocation.Snapshot(c.Context(), propertyID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Ledger retrieved successfully", fiber.Map{"ledger": snap}, nil)
}

// GetLedgerEvents GET /api/v1/properties/get-ledger-events/:property_id.
func (h *Handlers) GetLedgerEvents(c *fiber.Ctx) error {
	propertyID, err := parseID(c, "property_id")
	if err != nil {
		return response.Error(c, "Invalid property ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	events, err := h.Service.GetLedgerEvents(c.Context(), propertyID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Ledger events retrieved successfully", fiber.Map{"events": events}, nil)
}

// DeleteProperty DELETE /api/v1/properties/delete-property/:property_id.
// Refused while the property has sold quotas.
func (h *Handlers) DeleteProperty(c *fiber.Ctx) error {
	propertyID, err := parseID(c, "property_id")
	if err != nil {
		return response.Error(c, "Invalid property ID format (must be a valid UUID)", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.DeleteProperty(c.Context(), propertyID); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Property deleted successfully", nil, nil)
}

type holdRequest struct {
	PropertyID string `json:"property_id"`
	Quantity   int    `json:"quantity"`
}

// BlockQuotas POST /api/v1/properties/block-quotas.
func (h *Handlers) BlockQuotas(c *fiber.Ctx) error {
	return h.hold(c, true)
}

// UnblockQuotas POST /api/v1/properties/unblock-quotas.
func (h *Handlers) UnblockQuotas(c *fiber.Ctx) error {
	return h.hold(c, false)
}

func (h *Handlers) hold(c *fiber.Ctx, block bool) error {
	var req holdRequest
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

	var snap *allocation.LedgerSnapshot
	if block {
		snap, err = h.Allocation.Block(c.Context(), propertyID, req.Quantity, actor)
	} else {
		snap, err = h.Allocation.Unblock(c.Context(), propertyID, req.Quantity, actor)
	}
	if err != nil {
		return response.DomainError(c, err)
	}
	msg := "Quotas blocked successfully"
	if !block {
		msg = "Quotas unblocked successfully"
	}
	return response.Success(c, msg, fiber.Map{"ledger": snap}, nil)
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(param))
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
