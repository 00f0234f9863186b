package controller

import (
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/serverutils"
	"provider-marketplace-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDirectoryController interface {
	RegisterRoutes(r fiber.Router)
	ListProviders(ctx *fiber.Ctx) error
	GetProvider(ctx *fiber.Ctx) error
}

type directoryController struct {
	directoryService service.IDirectoryService
}

func NewDirectoryController(directoryService service.IDirectoryService) IDirectoryController {
	return &directoryController{directoryService: directoryService}
}

func (c *directoryController) RegisterRoutes(r fiber.Router) {
	r.Get("/providers", c.ListProviders)
	r.Get("/providers/:id", c.GetProvider)
}

func (c *directoryController) ListProviders(ctx *fiber.Ctx) error {
	var req dto.ProviderListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.BadRequest("Invalid query parameters").Wrap(err)
	}
	// The public listing has no verification filter.
	req.VerificationStatus = ""
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.directoryService.ListProviders(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Providers", res))
}

func (c *directoryController) GetProvider(ctx *fiber.Ctx) error {
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.directoryService.GetProvider(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Provider", res))
}
