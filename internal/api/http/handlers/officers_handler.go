package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/api/dto"
	"github.com/citycare/issue-service/internal/auth"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/service"
)

// OfficersHandler exposes the admin officer directory.
type OfficersHandler struct {
	officers *service.OfficerService
}

// NewOfficersHandler constructs handler.
func NewOfficersHandler(officers *service.OfficerService) *OfficersHandler {
	return &OfficersHandler{officers: officers}
}

// CreateOfficer POST /admin/officers.
func (h *OfficersHandler) CreateOfficer(c *fiber.Ctx) error {
	var req dto.CreateOfficerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	officer, err := h.officers.CreateOfficer(c.UserContext(), auth.ActorFromContext(c), service.OfficerCreateInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		WardZone: req.WardZone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": officerResponse(officer)})
}

// ListOfficers GET /admin/officers.
func (h *OfficersHandler) ListOfficers(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	filters := service.OfficerListFilters{
		WardZone: optionalQuery(c, "ward_zone"),
		Limit:    limit,
		Offset:   offset,
	}
	if role := c.Query("role"); role != "" {
		r := domain.OfficerRole(role)
		filters.Role = &r
	}
	if active, err := strconv.ParseBool(c.Query("active")); err == nil {
		filters.Active = &active
	}
	officers, err := h.officers.ListOfficers(c.UserContext(), auth.ActorFromContext(c), filters)
	if err != nil {
		return err
	}
	items := make([]dto.OfficerResponse, 0, len(officers))
	for i := range officers {
		items = append(items, officerResponse(&officers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DeactivateOfficer POST /admin/officers/:id/deactivate.
func (h *OfficersHandler) DeactivateOfficer(c *fiber.Ctx) error {
	officer, err := h.officers.DeactivateOfficer(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": officerResponse(officer)})
}
