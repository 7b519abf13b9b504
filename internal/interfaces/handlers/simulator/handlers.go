package simulator

import (
	"vivenda-backend/internal/application/simulation"
	"vivenda-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the investment projection endpoint.
type Handlers struct{}

// Project POST /api/v1/simulator/project.
func (h *Handlers) Project(c *fiber.Ctx) error {
	var in simulation.Input
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	result, err := simulation.Project(in)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Projection computed successfully", fiber.Map{"projection": result}, nil)
}
