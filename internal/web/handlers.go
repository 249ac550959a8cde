// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/observability"
)

// AuthService is the set of use cases the handlers drive. *auth.Service
// implements it.
type AuthService interface {
	RegisterUser(ctx context.Context, in auth.RegisterInput) (auth.Result[auth.PublicUser], error)
	LoginUser(ctx context.Context, in auth.LoginInput) (auth.Result[auth.LoginOutput], error)
	ListUsers(ctx context.Context) ([]auth.PublicUser, error)
	GetCurrentUser(ctx context.Context, userID string) (*auth.User, bool, error)
}

var _ AuthService = (*auth.Service)(nil)

type handlers struct {
	svc     AuthService
	tokens  auth.TokenService
	metrics *observability.Metrics
	cookies cookieJar
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"omitempty,oneof=ADMIN VET RECEPTION"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type meResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
}

type dashboardResponse struct {
	User auth.PublicUser `json:"user"`
}

func resultLabel(ok bool, code auth.ErrorCode) string {
	if ok {
		return observability.ResultOK
	}
	return code.String()
}

// register handles POST /api/auth/register.
func (h *handlers) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeInvalidJSON)
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeRoleInvalid)
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return fail(c, http.StatusBadRequest, codeRoleInvalid)
	}

	res, err := h.svc.RegisterUser(c.Request().Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		h.metrics.RecordRegistration(observability.ResultFault)
		return err
	}
	h.metrics.RecordRegistration(resultLabel(res.OK(), res.Code()))
	if !res.OK() {
		return fail(c, http.StatusBadRequest, res.Code().String())
	}
	return c.JSON(http.StatusCreated, res.Value())
}

// login handles POST /api/auth/login. The token only travels in the cookie.
func (h *handlers) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeInvalidJSON)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeMissingFields)
	}

	res, err := h.svc.LoginUser(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.metrics.RecordLogin(observability.ResultFault)
		return err
	}
	h.metrics.RecordLogin(resultLabel(res.OK(), res.Code()))
	if !res.OK() {
		return fail(c, http.StatusUnauthorized, res.Code().String())
	}

	c.SetCookie(h.cookies.issue(res.Value().Token))
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// logout handles POST /api/auth/logout.
func (h *handlers) logout(c echo.Context) error {
	c.SetCookie(h.cookies.clear())
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// me handles GET /api/auth/me.
func (h *handlers) me(c echo.Context) error {
	userID, ok := sessionUserID(c, h.tokens, h.metrics)
	if !ok {
		return c.JSON(http.StatusOK, meResponse{})
	}
	return c.JSON(http.StatusOK, meResponse{Authenticated: true, UserID: userID})
}

// listUsers handles GET /api/users.
func (h *handlers) listUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []auth.PublicUser{}
	}
	return c.JSON(http.StatusOK, users)
}

// dashboard handles GET /dashboard behind requireSession. A token for a
// user that no longer exists is treated as no session.
func (h *handlers) dashboard(c echo.Context) error {
	user, found, err := h.svc.GetCurrentUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	if !found {
		return c.Redirect(http.StatusSeeOther, LoginPath)
	}
	return c.JSON(http.StatusOK, dashboardResponse{User: user.Public()})
}
