package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prperemyshlev/kanah-health/internal/dto"
	"github.com/prperemyshlev/kanah-health/internal/repository"
	"github.com/prperemyshlev/kanah-health/internal/service"
	"go.uber.org/zap"
)

type statusError struct {
	target  error
	status  int
	title   string
	message string // overrides err.Error() when set
}

var serviceErrors = []statusError{
	{target: service.ErrInvalidCredentials, status: http.StatusUnauthorized, title: "Unauthorized"},
	{target: service.ErrEmailNotConfirmed, status: http.StatusForbidden, title: "Forbidden"},
	{target: service.ErrUserExists, status: http.StatusConflict, title: "Conflict"},
	{target: service.ErrInactiveUser, status: http.StatusForbidden, title: "Forbidden"},
	{target: service.ErrInvalidToken, status: http.StatusUnauthorized, title: "Unauthorized"},
	{target: service.ErrForbidden, status: http.StatusForbidden, title: "Forbidden"},
	{target: service.ErrInvalidInput, status: http.StatusBadRequest, title: "Bad request"},
	{target: service.ErrProviderDisabled, status: http.StatusBadRequest, title: "Bad request"},
	{target: service.ErrInvalidRedirect, status: http.StatusBadRequest, title: "Bad request"},
	{target: service.ErrInvalidGrant, status: http.StatusBadRequest, title: "invalid_grant"},
	{target: repository.ErrNotFound, status: http.StatusNotFound, title: "Not found", message: "Resource not found"},
	{target: repository.ErrMissingReference, status: http.StatusConflict, title: "Conflict", message: "Referenced record does not exist"},
}

// respondError maps a service error onto a status code and an ErrorResponse.
// Unknown errors are logged and reported as 500 without detail.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var rateErr *service.RateLimitError
	if errors.As(err, &rateErr) {
		c.Header("Retry-After", strconv.Itoa(int(rateErr.RetryAfter.Seconds())))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Error:   "Too Many Requests",
			Message: err.Error(),
		})
		return
	}

	for _, se := range serviceErrors {
		if errors.Is(err, se.target) {
			message := se.message
			if message == "" {
				message = err.Error()
			}
			c.AbortWithStatusJSON(se.status, dto.ErrorResponse{Error: se.title, Message: message})
			return
		}
	}

	logger.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "Internal server error",
		Message: "Something went wrong",
	})
}

// respondBindError reports a request that failed binding or validation.
// Field errors are listed in Details keyed by the JSON field name.
func respondBindError(c *gin.Context, err error) {
	response := dto.ErrorResponse{
		Error:   "Validation failed",
		Message: err.Error(),
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = fieldMessage(fe)
		}
		response.Details = details
		response.Message = "One or more fields are invalid"
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + fe.Param() + " characters"
		}
		return "Must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters"
		}
		return "Must be at most " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case phoneTag:
		return phoneMessage(fe.Value())
	default:
		return "Invalid value"
	}
}
