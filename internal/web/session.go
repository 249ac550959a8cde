// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package web

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/observability"
)

const (
	// SessionCookie holds the access token.
	SessionCookie = "access"
	// LoginPath is where anonymous dashboard visitors are sent.
	LoginPath = "/login"

	userIDKey = "userID"
)

// cookieJar builds the session cookie.
type cookieJar struct {
	secure bool
	ttl    time.Duration
}

func (j cookieJar) issue(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(j.ttl / time.Second),
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// clear expires the cookie immediately (Max-Age=0 on the wire).
func (j cookieJar) clear() *http.Cookie {
	c := j.issue("")
	c.MaxAge = -1
	return c
}

// sessionUserID verifies the session cookie. ok is false when it is missing
// or the token does not verify.
func sessionUserID(c echo.Context, tokens auth.TokenService, metrics *observability.Metrics) (userID string, ok bool) {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	v := tokens.Verify(cookie.Value)
	metrics.RecordTokenVerification(v.Valid)
	if !v.Valid {
		return "", false
	}
	return v.UserID, true
}

// requireSession redirects to LoginPath unless the request carries a valid
// session. The verified user id is stored on the context.
func requireSession(tokens auth.TokenService, metrics *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := sessionUserID(c, tokens, metrics)
			if !ok {
				return c.Redirect(http.StatusSeeOther, LoginPath)
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

func currentUserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
