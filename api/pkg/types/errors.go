package types

import (
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrorKindValidation         ErrorKind = "validation_error"
	ErrorKindUnauthorized       ErrorKind = "unauthorized"
	ErrorKindDeploymentNotFound ErrorKind = "deployment_not_found"
	ErrorKindModelNotFound      ErrorKind = "model_not_found"
	ErrorKindModelGated         ErrorKind = "model_gated"
	ErrorKindModelAccessDenied  ErrorKind = "model_access_denied"
	ErrorKindUnsupportedModel   ErrorKind = "unsupported_model"
	ErrorKindUnsupportedGPU     ErrorKind = "unsupported_gpu"
	ErrorKindInsufficientGPU    ErrorKind = "insufficient_gpu"
	ErrorKindProvider           ErrorKind = "provider_error"
	ErrorKindTimeout            ErrorKind = "timeout"
	ErrorKindWebhookDelivery    ErrorKind = "webhook_delivery_error"
	ErrorKindRateLimited        ErrorKind = "rate_limited"
	ErrorKindInternal           ErrorKind = "internal_error"
)

// APIError is the tagged error variant used across the gateway. The HTTP
// status mapping happens at the server edge; inside the engine only the
// Kind matters.
type APIError struct {
	Kind    ErrorKind      `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus maps an error kind to the status code the transport surfaces.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case ErrorKindValidation, ErrorKindModelNotFound, ErrorKindModelGated,
		ErrorKindModelAccessDenied, ErrorKindUnsupportedModel, ErrorKindUnsupportedGPU:
		return http.StatusBadRequest
	case ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case ErrorKindDeploymentNotFound:
		return http.StatusNotFound
	case ErrorKindRateLimited:
		return http.StatusTooManyRequests
	case ErrorKindInsufficientGPU, ErrorKindProvider:
		return http.StatusBadGateway
	case ErrorKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func NewAPIError(kind ErrorKind, format string, args ...any) *APIError {
	return &APIError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func NewValidationError(format string, args ...any) *APIError {
	return NewAPIError(ErrorKindValidation, format, args...)
}

func NewUnauthorizedError(message string) *APIError {
	return NewAPIError(ErrorKindUnauthorized, "%s", message)
}

func NewDeploymentNotFoundError(id string) *APIError {
	return NewAPIError(ErrorKindDeploymentNotFound, "deployment not found: %s", id).
		WithDetail("deployment_id", id)
}

func NewModelNotFoundError(modelID string) *APIError {
	return NewAPIError(ErrorKindModelNotFound, "Hugging Face model not found: %s", modelID).
		WithDetail("hf_model_id", modelID)
}

func NewModelGatedError(modelID string) *APIError {
	return NewAPIError(ErrorKindModelGated,
		"model %s is gated: accept the license on huggingface.co and supply hf_token", modelID).
		WithDetail("hf_model_id", modelID)
}

func NewUnsupportedGPUError(tier string, tierVRAM, requiredVRAM int) *APIError {
	return NewAPIError(ErrorKindUnsupportedGPU,
		"requested GPU tier %s has %d GB VRAM but the model needs at least %d GB", tier, tierVRAM, requiredVRAM).
		WithDetail("requested_tier", tier).
		WithDetail("required_vram_gb", requiredVRAM)
}

func NewInsufficientGPUError(requiredVRAM int) *APIError {
	return NewAPIError(ErrorKindInsufficientGPU,
		"no GPU tier with sufficient VRAM (required >= %d GB)", requiredVRAM).
		WithDetail("required_vram_gb", requiredVRAM)
}

func NewRateLimitError(retryAfterSeconds int) *APIError {
	return NewAPIError(ErrorKindRateLimited, "rate limit exceeded, try again later").
		WithDetail("retry_after_seconds", retryAfterSeconds)
}
