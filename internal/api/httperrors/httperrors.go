// Package httperrors carries the JSON error envelope of the public API.
package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	HTTPErrorTypeGeneric = "generic"
)

// HTTPError is the public error payload. Title is machine-stable and safe
// to branch on; Detail is free-form context for humans.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
}

func NewHTTPError(code int, errType, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errType,
		Title: title,
	}
}

func NewHTTPErrorWithDetail(code int, errType, title, detail string) *HTTPError {
	return &HTTPError{
		Code:   code,
		Type:   errType,
		Title:  title,
		Detail: detail,
	}
}

// HandlerWithConfig returns the echo error handler rendering every error as
// the JSON envelope. Internal error details leak nothing when hiding is on.
func HandlerWithConfig(hideInternalServerErrorDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var payload *HTTPError

		switch e := err.(type) {
		case *HTTPError:
			payload = e
		case *echo.HTTPError:
			payload = &HTTPError{
				Code: e.Code,
				Type: HTTPErrorTypeGeneric,
			}
			if msg, ok := e.Message.(string); ok {
				payload.Title = msg
			} else {
				payload.Title = http.StatusText(e.Code)
			}
		default:
			payload = &HTTPError{
				Code:  http.StatusInternalServerError,
				Type:  HTTPErrorTypeGeneric,
				Title: http.StatusText(http.StatusInternalServerError),
			}
			if !hideInternalServerErrorDetails {
				payload.Detail = err.Error()
			}
		}

		if writeErr := c.JSON(payload.Code, payload); writeErr != nil {
			log.Error().Err(writeErr).Msg("Failed to write error response")
		}
	}
}
