package restapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// ParameterPollID is used to identify a poll by its ID.
	ParameterPollID = "pollID"

	// ParameterProposalID is used to identify a proposal by its ID.
	ParameterProposalID = "proposalID"

	// ParameterCategory is used to identify a parameter category.
	ParameterCategory = "category"

	// ParameterName is used to identify a parameter within its category.
	ParameterName = "name"

	// HeaderIdentity carries the identity of the caller.
	HeaderIdentity = "X-Identity"
)

var (
	// ErrInvalidParameter defines the invalid parameter error.
	ErrInvalidParameter = echo.NewHTTPError(http.StatusBadRequest, "invalid parameter")

	// ErrForbidden defines the forbidden error.
	ErrForbidden = echo.NewHTTPError(http.StatusForbidden, "forbidden")

	// ErrNotFound defines the not found error.
	ErrNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

	// ErrConflict defines the conflict error.
	ErrConflict = echo.NewHTTPError(http.StatusConflict, "conflict")

	// ErrTooManyRequests defines the rate limit error.
	ErrTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// JSONResponse sends the JSON response with status code.
func JSONResponse(c echo.Context, statusCode int, result interface{}) error {
	return c.JSON(statusCode, result)
}

// HTTPErrorResponse defines the error struct for the HTTPErrorResponseEnvelope.
type HTTPErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HTTPErrorResponseEnvelope defines the error response schema for node API responses.
type HTTPErrorResponseEnvelope struct {
	Error HTTPErrorResponse `json:"error"`
}

// ErrorHandler returns an echo error handler that renders errors as HTTPErrorResponseEnvelope.
// onError is called for every failed request and may be nil.
func ErrorHandler(onError func(err error)) func(error, echo.Context) {
	return func(err error, c echo.Context) {
		if onError != nil {
			onError(err)
		}

		var statusCode int
		var message string

		var e *echo.HTTPError
		if errors.As(err, &e) {
			statusCode = e.Code
			message = fmt.Sprintf("%s, error: %s", e.Message, err)
		} else {
			statusCode = http.StatusInternalServerError
			message = fmt.Sprintf("internal server error. error: %s", err)
		}

		_ = c.JSON(statusCode, HTTPErrorResponseEnvelope{Error: HTTPErrorResponse{Code: strconv.Itoa(statusCode), Message: message}})
	}
}

// ParseRequiredParam returns the trimmed path parameter or ErrInvalidParameter if it is empty.
func ParseRequiredParam(c echo.Context, paramName string) (string, error) {
	value := strings.TrimSpace(c.Param(paramName))
	if value == "" {
		return "", errors.WithMessagef(ErrInvalidParameter, "parameter \"%s\" not specified", paramName)
	}
	return value, nil
}

// ParseIndexParam parses a non-negative integer from the given value.
func ParseIndexParam(value string, paramName string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || index < 0 {
		return 0, errors.WithMessagef(ErrInvalidParameter, "invalid %s: %s", paramName, value)
	}
	return index, nil
}

// Identity returns the caller identity of the request, which may be empty.
func Identity(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get(HeaderIdentity))
}
