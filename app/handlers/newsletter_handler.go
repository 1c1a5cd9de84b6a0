package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sophron-goods/storefront-api/app/dto"
	"github.com/sophron-goods/storefront-api/app/services"
	businessflow "github.com/sophron-goods/storefront-api/business_flow"
)

// NewsletterHandlerInterface defines the contract for newsletter handlers
type NewsletterHandlerInterface interface {
	Subscribe(c fiber.Ctx) error
}

// NewsletterHandler handles newsletter-related HTTP requests
type NewsletterHandler struct {
	newsletterFlow businessflow.NewsletterFlow
	validator      *validator.Validate
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(newsletterFlow businessflow.NewsletterFlow) *NewsletterHandler {
	return &NewsletterHandler{
		newsletterFlow: newsletterFlow,
		validator:      validator.New(),
	}
}

func (h *NewsletterHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *NewsletterHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Subscribe adds an email to the marketing list
func (h *NewsletterHandler) Subscribe(c fiber.Ctx) error {
	var req dto.SubscribeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.newsletterFlow.Subscribe(h.createRequestContext(c, "/api/v1/newsletter/subscribe"), &req, metadata)
	if err != nil {
		if businessflow.IsEmailRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Email is required", "EMAIL_REQUIRED", nil)
		}
		if errors.Is(err, services.ErrAlreadySubscribed) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Email is already subscribed", "ALREADY_SUBSCRIBED", nil)
		}

		log.Println("Newsletter subscription failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to subscribe", "SUBSCRIPTION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Subscribed successfully", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *NewsletterHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	ctx = context.WithValue(ctx, "request_id", c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup
	return ctx
}
