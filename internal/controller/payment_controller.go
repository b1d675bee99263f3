package controller

import (
	"fmt"

	"takahub-be/internal/dto"
	"takahub-be/internal/pkg/logger"
	"takahub-be/internal/pkg/serverutils"
	"takahub-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	Plans(ctx *fiber.Ctx) error
	Initiate(ctx *fiber.Ctx) error
	Verify(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	Webhook(ctx *fiber.Ctx) error
}

type paymentController struct {
	paymentService      service.IPaymentService
	subscriptionService service.ISubscriptionService
	clientURL           string
	log                 logger.ILogger
}

func NewPaymentController(paymentService service.IPaymentService, subscriptionService service.ISubscriptionService, clientURL string, log logger.ILogger) IPaymentController {
	return &paymentController{
		paymentService:      paymentService,
		subscriptionService: subscriptionService,
		clientURL:           clientURL,
		log:                 log,
	}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment")
	// Webhooks carry their own signature auth, the plan catalog is shown
	// before sign-up, and gateways redirect browsers to the completion
	// bridge; everything else needs a token.
	h.Post("webhook/:provider", c.Webhook)
	h.Get("plans", c.Plans)
	h.Get("complete", c.Complete)

	h.Post("initiate", serverutils.JwtMiddleware, c.Initiate)
	h.Post("verify", serverutils.JwtMiddleware, c.Verify)
}

func (c *paymentController) Plans(ctx *fiber.Ctx) error {
	agencyId, err := uuid.Parse(ctx.Query("agency_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "agency_id query parameter is required")
	}

	res, err := c.subscriptionService.GetPlans(ctx.Context(), agencyId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Available plans", res))
}

func (c *paymentController) Initiate(ctx *fiber.Ctx) error {
	userId, err := authenticatedUser(ctx)
	if err != nil {
		return err
	}

	var req dto.InitiatePaymentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.paymentService.InitiatePayment(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Payment initiated", res))
}

func (c *paymentController) Verify(ctx *fiber.Ctx) error {
	if _, err := authenticatedUser(ctx); err != nil {
		return err
	}

	var req dto.VerifyPaymentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.paymentService.VerifyPayment(ctx.Context(), req.SubscriptionId, req.Reference)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Payment verification result", res))
}

// Complete is the browser-facing landing page gateways redirect to after
// checkout. It hands the user back to the mobile app's deep link; settlement
// itself happens through the webhook and verify paths.
func (c *paymentController) Complete(ctx *fiber.Ctx) error {
	target := c.clientURL + "/payment/complete"
	if subscriptionId := ctx.Query("subscription_id"); subscriptionId != "" {
		target = fmt.Sprintf("%s?subscription_id=%s", target, subscriptionId)
	}
	return ctx.Redirect(target, fiber.StatusFound)
}

// Webhook returns non-2xx on any processing failure so the provider keeps
// retrying until we settle the transaction.
func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")

	signature := ctx.Get("verif-hash")
	if signature == "" {
		signature = ctx.Get("x-paystack-signature")
	}

	err := c.paymentService.HandleWebhook(ctx.Context(), provider, ctx.Body(), signature)
	if err != nil {
		c.log.Warn("WEBHOOK", "webhook processing failed", map[string]interface{}{
			"provider": provider,
			"error":    err.Error(),
		})
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Webhook processed", fiber.Map{}))
}
