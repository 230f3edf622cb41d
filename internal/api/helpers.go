package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/textfeat/pkg/features"
	"github.com/samcharles93/textfeat/pkg/text"
)

func writeBadRequest(c *echo.Context, msg, param, code string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, code)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// errorStatus maps an operation error to the HTTP status and error code
// reported to the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, features.ErrEncoderNotConfigured):
		return http.StatusBadRequest, "encoder_not_configured"
	case errors.Is(err, text.ErrTokenOutOfRange):
		return http.StatusBadRequest, "token_out_of_range"
	case errors.Is(err, text.ErrOutOfVocabulary):
		return http.StatusBadRequest, "out_of_vocabulary"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func writeOpError(c *echo.Context, err error) error {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		return writeError(c, status, "server_error", err.Error(), "", code)
	}
	var ire invalidRequestError
	param := ""
	if errors.As(err, &ire) {
		param = ire.param
	}
	return writeBadRequest(c, err.Error(), param, code)
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// requestID echoes the caller's X-Request-Id or assigns a new one.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}
