package controller

import (
	"provider-marketplace-be/internal/dto"
	"provider-marketplace-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStripeWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Webhook(ctx *fiber.Ctx) error
}

type stripeWebhookController struct {
	subscriptionService service.ISubscriptionService
}

func NewStripeWebhookController(subscriptionService service.ISubscriptionService) IStripeWebhookController {
	return &stripeWebhookController{subscriptionService: subscriptionService}
}

func (c *stripeWebhookController) RegisterRoutes(r fiber.Router) {
	r.Post("/stripe/webhook", c.Webhook)
}

// Webhook must see the body exactly as sent; the signature covers those bytes.
// A non-2xx answer makes Stripe redeliver.
func (c *stripeWebhookController) Webhook(ctx *fiber.Ctx) error {
	payload := append([]byte(nil), ctx.Body()...)
	signature := ctx.Get("Stripe-Signature")

	if err := c.subscriptionService.HandleWebhookEvent(ctx.UserContext(), signature, payload); err != nil {
		return err
	}
	return ctx.JSON(dto.WebhookAckResponse{Received: true})
}
