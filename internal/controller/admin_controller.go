// FILE: internal/controller/admin_controller.go
package controller

import (
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/apperror"
	"provider-marketplace-be/internal/pkg/serverutils"
	"provider-marketplace-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)

	// Verification
	ApproveProvider(ctx *fiber.Ctx) error
	RejectProvider(ctx *fiber.Ctx) error
	SetProviderBlocked(ctx *fiber.Ctx) error
	SetUserBlocked(ctx *fiber.Ctx) error

	// Review queue
	GetProvider(ctx *fiber.Ctx) error
	ListProviders(ctx *fiber.Ctx) error
}

type adminController struct {
	verificationService service.IVerificationService
	authMiddleware      fiber.Handler
}

func NewAdminController(verificationService service.IVerificationService, authMiddleware fiber.Handler) IAdminController {
	return &adminController{
		verificationService: verificationService,
		authMiddleware:      authMiddleware,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin")
	h.Use(c.authMiddleware, serverutils.RequireRole(entity.UserRoleAdmin))

	h.Get("/providers", c.ListProviders)
	h.Get("/providers/:id", c.GetProvider)
	h.Patch("/providers/:id/approve", c.ApproveProvider)
	h.Patch("/providers/:id/reject", c.RejectProvider)
	h.Patch("/providers/:id/block", c.SetProviderBlocked)

	h.Patch("/users/:id/block", c.SetUserBlocked)
}

func parseIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.BadRequest("Invalid id")
	}
	return id, nil
}

func (c *adminController) ApproveProvider(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.verificationService.Approve(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Provider approved", res))
}

func (c *adminController) RejectProvider(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.RejectProviderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.verificationService.Reject(ctx.UserContext(), actor, id, req.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Provider rejected", res))
}

func (c *adminController) SetProviderBlocked(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetBlockedRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.verificationService.SetProviderBlocked(ctx.UserContext(), actor, id, *req.IsBlocked)
	if err != nil {
		return err
	}
	msg := "Provider unblocked"
	if *req.IsBlocked {
		msg = "Provider blocked"
	}
	return ctx.JSON(serverutils.SuccessResponse(msg, res))
}

func (c *adminController) SetUserBlocked(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.SetBlockedRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("Invalid request body").Wrap(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.verificationService.SetUserBlocked(ctx.UserContext(), actor, id, *req.IsBlocked)
	if err != nil {
		return err
	}
	msg := "User unblocked"
	if *req.IsBlocked {
		msg = "User blocked"
	}
	return ctx.JSON(serverutils.SuccessResponse(msg, res))
}

func (c *adminController) GetProvider(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := parseIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.verificationService.GetProvider(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Provider detail", res))
}

func (c *adminController) ListProviders(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.ProviderListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.BadRequest("Invalid query parameters").Wrap(err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.verificationService.ListProviders(ctx.UserContext(), actor, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Providers", res))
}
