package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
	"github.com/dmitrymomot/gatekeeper/pkg/logger"
	"github.com/dmitrymomot/gatekeeper/pkg/ratelimiter"
	"github.com/dmitrymomot/gatekeeper/pkg/validator"
)

// Error codes written to ErrorDetail.Code.
const (
	CodeValidation       = "validation_error"
	CodeAccountExists    = "account_exists"
	CodeInvalidCreds     = "invalid_credentials"
	CodeNotFound         = "not_found"
	CodeVerification     = "verification_failed"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeTooManyRequests  = "too_many_requests"
	CodeBadRequest       = "bad_request"
	CodeUnsupportedMedia = "unsupported_media_type"
	CodeBodyTooLarge     = "payload_too_large"
	CodeInternal         = "internal_error"
)

// ErrorInfo is the client-facing classification of an error.
type ErrorInfo struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string][]string
	RetryAfter int
	LogLevel   slog.Level
}

// classifyError maps a flow error to its HTTP representation. Unknown
// errors become 500 with a generic message.
func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    "An error occurred processing your request",
	}

	var limitErr *ratelimiter.LimitError
	switch {
	case errors.As(err, &limitErr):
		info.StatusCode, info.Code, info.Message = http.StatusTooManyRequests, CodeTooManyRequests, "Too many attempts, try again later"
		info.RetryAfter = ratelimiter.RetryAfterSeconds(limitErr.RetryAfter)
	case errors.Is(err, ratelimiter.ErrTooManyAttempts):
		info.StatusCode, info.Code, info.Message = http.StatusTooManyRequests, CodeTooManyRequests, "Too many attempts, try again later"
	case errors.Is(err, auth.ErrValidation):
		info.StatusCode, info.Code, info.Message = http.StatusUnprocessableEntity, CodeValidation, "Validation failed"
		if ve := validator.ExtractValidationErrors(err); ve != nil {
			info.Details = ve.Fields()
		}
	case errors.Is(err, auth.ErrDuplicateAccount):
		info.StatusCode, info.Code, info.Message = http.StatusConflict, CodeAccountExists, "An account with this email already exists"
	case errors.Is(err, auth.ErrInvalidCredentials):
		info.StatusCode, info.Code, info.Message = http.StatusUnauthorized, CodeInvalidCreds, "Invalid email or password"
	case errors.Is(err, auth.ErrNotFound):
		info.StatusCode, info.Code, info.Message = http.StatusNotFound, CodeNotFound, "Account not found"
	case errors.Is(err, auth.ErrVerification):
		info.StatusCode, info.Code, info.Message = http.StatusUnauthorized, CodeVerification, "Identity provider token could not be verified"
	case errors.Is(err, auth.ErrInvalidToken):
		info.StatusCode, info.Code, info.Message = http.StatusUnauthorized, CodeUnauthorized, "Authentication required"
	case errors.Is(err, auth.ErrForbidden):
		info.StatusCode, info.Code, info.Message = http.StatusForbidden, CodeForbidden, "Access denied"
	case errors.Is(err, ErrUnsupportedMediaType):
		info.StatusCode, info.Code, info.Message = http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Content-Type must be application/json"
	case errors.Is(err, ErrBodyTooLarge):
		info.StatusCode, info.Code, info.Message = http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "Request body too large"
	case errors.Is(err, ErrInvalidJSON):
		info.StatusCode, info.Code, info.Message = http.StatusBadRequest, CodeBadRequest, "Malformed JSON body"
	}

	info.LogLevel = slog.LevelError
	if info.StatusCode < http.StatusInternalServerError {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

// writeError logs err and renders its classification. Internal causes
// are never written to the response.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	info := classifyError(err)

	a.logger.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.RequestID(middleware.GetReqID(r.Context())),
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(info.RetryAfter))
	}
	if renderErr := writeJSON(w, info.StatusCode, Envelope{Error: &ErrorDetail{
		Code:    info.Code,
		Message: info.Message,
		Details: info.Details,
	}}); renderErr != nil {
		a.logger.ErrorContext(r.Context(), "failed to render error",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Error(renderErr),
		)
	}
}
