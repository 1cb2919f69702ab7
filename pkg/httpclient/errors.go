package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

const maxErrorBody = 64 << 10

// ParseResponseError consumes and closes the body of a non-2xx response and
// maps it to an AppError named after the downstream. Bodies shaped like
// {"error":{"code":..,"message":..}} or {"error":{"message":..}} contribute
// their message; anything else is quoted raw.
func ParseResponseError(resp *http.Response, downstream string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned %d, body unreadable: %w", downstream, resp.StatusCode, err)
	}

	message := strings.TrimSpace(string(raw))
	var envelope struct {
		Error *struct {
			Code    any    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return statusError(resp.StatusCode, downstream+": "+message)
}

func statusError(status int, message string) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusNotFound:
		return apperrors.New("NOT_FOUND", message, http.StatusNotFound, apperrors.ErrNotFound)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return apperrors.Unavailable(message)
	default:
		return apperrors.New("DOWNSTREAM_ERROR", message, http.StatusBadGateway, apperrors.ErrInternal)
	}
}

// IsClientError reports whether status is 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
