// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/sophron-goods/storefront-api/app/dto"
	"github.com/sophron-goods/storefront-api/app/middleware"
	"github.com/sophron-goods/storefront-api/app/services"
	businessflow "github.com/sophron-goods/storefront-api/business_flow"
)

// ShippingHandlerInterface defines the contract for shipping handlers
type ShippingHandlerInterface interface {
	CalculateRates(c fiber.Ctx) error
	ValidateAddress(c fiber.Ctx) error
}

// ShippingHandler handles shipping-related HTTP requests
type ShippingHandler struct {
	shippingFlow businessflow.ShippingFlow
	validator    *validator.Validate
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(shippingFlow businessflow.ShippingFlow) *ShippingHandler {
	return &ShippingHandler{
		shippingFlow: shippingFlow,
		validator:    validator.New(),
	}
}

func (h *ShippingHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ShippingHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CalculateRates computes marked-up shipping rates for a cart
func (h *ShippingHandler) CalculateRates(c fiber.Ctx) error {
	var req dto.CalculateRatesRequest
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

	result, err := h.shippingFlow.CalculateRates(h.createRequestContext(c, "/api/v1/shipping/calculate-rates"), &req, metadata)
	if err != nil {
		if businessflow.IsDestinationZipRequired(err) {
			middleware.ObserveRateCalculation("validation_error")
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Destination ZIP code is required", "DESTINATION_ZIP_REQUIRED", nil)
		}
		if businessflow.IsNoLineItems(err) {
			middleware.ObserveRateCalculation("validation_error")
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one cart item is required", "NO_LINE_ITEMS", nil)
		}
		if businessflow.IsInvalidQuantity(err) {
			middleware.ObserveRateCalculation("validation_error")
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Item quantity must be at least 1", "INVALID_QUANTITY", nil)
		}
		if businessflow.IsNoActiveShippingConfiguration(err) {
			middleware.ObserveRateCalculation("no_config")
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "No active shipping configuration found", "NO_ACTIVE_SHIPPING_CONFIGURATION", nil)
		}

		var apiErr *services.CarrierAPIError
		if errors.As(err, &apiErr) {
			middleware.ObserveRateCalculation("carrier_error")
			log.Println("Carrier API rejected rate request", err)
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Carrier is unavailable", "CARRIER_UNAVAILABLE", nil)
		}

		middleware.ObserveRateCalculation("carrier_error")
		log.Println("Rate calculation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to calculate shipping rates", "RATE_CALCULATION_FAILED", nil)
	}

	middleware.ObserveRateCalculation("ok")
	return h.SuccessResponse(c, fiber.StatusOK, "Rates calculated successfully", result)
}

// ValidateAddress standardizes a destination address via the carrier
func (h *ShippingHandler) ValidateAddress(c fiber.Ctx) error {
	var req dto.ValidateAddressRequest
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

	result, err := h.shippingFlow.ValidateAddress(h.createRequestContext(c, "/api/v1/shipping/validate-address"), &req, metadata)
	if err != nil {
		if businessflow.IsMissingAddressFields(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Street address, city, state and ZIP code are required", "MISSING_ADDRESS_FIELDS", nil)
		}

		log.Println("Address validation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to validate address", "ADDRESS_VALIDATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Address validated", result)
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *ShippingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, "request_id", c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, "user_agent", c.Get("User-Agent"))
	ctx = context.WithValue(ctx, "ip_address", c.IP())
	ctx = context.WithValue(ctx, "endpoint", endpoint)
	ctx = context.WithValue(ctx, "cancel_func", cancel) // Store cancel function for cleanup
	return ctx
}

// getValidationErrorMessage converts a validator error into a readable message
func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}
