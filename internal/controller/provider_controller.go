package controller

import (
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/pkg/serverutils"
	"provider-marketplace-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IProviderController serves the signed-in provider's own account.
type IProviderController interface {
	RegisterRoutes(r fiber.Router)
	Subscribe(ctx *fiber.Ctx) error
	GetSubscriptionStatus(ctx *fiber.Ctx) error
	ReapplyVerification(ctx *fiber.Ctx) error
}

type providerController struct {
	subscriptionService service.ISubscriptionService
	verificationService service.IVerificationService
	authMiddleware      fiber.Handler
}

func NewProviderController(
	subscriptionService service.ISubscriptionService,
	verificationService service.IVerificationService,
	authMiddleware fiber.Handler,
) IProviderController {
	return &providerController{
		subscriptionService: subscriptionService,
		verificationService: verificationService,
		authMiddleware:      authMiddleware,
	}
}

func (c *providerController) RegisterRoutes(r fiber.Router) {
	// Guards are attached per route: a Use on "/provider" would also match "/providers".
	onlyProvider := serverutils.RequireRole(entity.UserRoleServiceProvider)

	r.Post("/provider/subscribe", c.authMiddleware, onlyProvider, c.Subscribe)
	r.Get("/provider/subscription-status", c.authMiddleware, onlyProvider, c.GetSubscriptionStatus)
	r.Post("/user/provider/reapply-verification", c.authMiddleware, onlyProvider, c.ReapplyVerification)
}

func (c *providerController) Subscribe(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.subscriptionService.CreateCheckoutSession(ctx.UserContext(), actor, actor.UserId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *providerController) GetSubscriptionStatus(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.subscriptionService.GetSubscriptionStatus(ctx.UserContext(), actor, actor.UserId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription status", res))
}

func (c *providerController) ReapplyVerification(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.verificationService.ReapplyVerification(ctx.UserContext(), actor, actor.UserId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Verification re-submitted", res))
}
