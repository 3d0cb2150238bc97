package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo-io/leonardo/internal/claim"
	"github.com/leonardo-io/leonardo/internal/classifier"
	"github.com/leonardo-io/leonardo/internal/devicekey"
	"github.com/leonardo-io/leonardo/internal/ledger"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
)

type ApiResponseError struct {
	Status int
	Body   any
}

func (e ApiResponseError) Error() string {
	data, err := json.Marshal(e.Body)
	if err != nil {
		return "ApiResponseError"
	}
	return string(data)
}

func NewApiResponseError(status int, body any) *ApiResponseError {
	return &ApiResponseError{
		Status: status,
		Body:   body,
	}
}

// responseError maps the errors of the device packages onto HTTP responses.
// It returns nil for errors that are not expected by callers.
func responseError(err error) *ApiResponseError {
	var apiResponseError *ApiResponseError
	switch {
	case errors.As(err, &apiResponseError):
		return apiResponseError
	case errors.Is(err, devicekey.ErrInvalidDeviceID):
		return NewApiResponseError(http.StatusBadRequest, models.NewBadPathParameterError("id"))
	case errors.Is(err, registry.ErrNotFound):
		return NewApiResponseError(http.StatusNotFound, models.NewNotFoundError("device"))
	case errors.Is(err, claim.ErrInvalidToken):
		return NewApiResponseError(http.StatusBadRequest, models.NewFieldValidationError("fth", "invalid factory token"))
	case errors.Is(err, claim.ErrAlreadyClaimed):
		return NewApiResponseError(http.StatusConflict, models.NewConflictsError("device", "device is already registered to another user"))
	case errors.Is(err, registry.ErrInvalidConfig),
		errors.Is(err, ledger.ErrInvalidCoordinates),
		errors.Is(err, classifier.ErrInvalidEvent):
		return NewApiResponseError(http.StatusBadRequest, models.NewBadPayloadError(err))
	case errors.Is(err, classifier.ErrDeviceSuspended):
		return NewApiResponseError(http.StatusServiceUnavailable, models.NewUnavailableError("device suspended"))
	}
	return nil
}

func (api *API) sendError(c *gin.Context, err error) {
	if apiResponseError := responseError(err); apiResponseError != nil {
		c.JSON(apiResponseError.Status, apiResponseError.Body)
		return
	}
	api.SendInternalServerError(c, err)
}
