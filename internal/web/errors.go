// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/pkg/errutil"
)

// Error codes produced by the HTTP layer itself.
const (
	codeInvalidJSON   = "INVALID_JSON"
	codeMissingFields = "MISSING_FIELDS"
	codeRoleInvalid   = "ROLE_INVALID"
	codeInternal      = "INTERNAL"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error string `json:"error"`
}

func fail(c echo.Context, status int, code string) error {
	return c.JSON(status, errorResponse{Error: code})
}

// newErrorHandler renders errors that reach echo. Framework errors keep
// their status; anything else is a fault and is logged.
func newErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, errorResponse{Error: statusCode(he.Code)})
			return
		}

		errutil.LogErrorContext(c.Request().Context(), logger, "request failed", err)
		_ = c.JSON(http.StatusInternalServerError, errorResponse{Error: codeInternal})
	}
}

// statusCode turns an HTTP status into an error code, e.g. 404 -> NOT_FOUND.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return codeInternal
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
