// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

// browser is an HTTP client with a cookie jar that does not follow redirects.
type browser struct {
	client *http.Client
}

func newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &browser{client: &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) do(method, path string, body any) (int, map[string]any, *http.Response) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(env.ctx, method, env.baseURL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	var decoded map[string]any
	if len(bytes.TrimSpace(raw)) > 0 && raw[0] == '{' {
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
	}
	return resp.StatusCode, decoded, resp
}

func (b *browser) list() []map[string]any {
	resp, err := b.client.Get(env.baseURL + "/api/users")
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	var users []map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&users)).To(Succeed())
	return users
}

var _ = Describe("Staff authentication", func() {
	var b *browser

	BeforeEach(func() {
		env.resetUsers()
		b = newBrowser()
	})

	Describe("registration", func() {
		It("creates an account and hides the password hash", func() {
			status, body, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
				"email": "vet@clinic.com", "password": "longenough", "role": "VET",
			})
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(HaveKeyWithValue("email", "vet@clinic.com"))
			Expect(body).To(HaveKeyWithValue("role", "VET"))
			Expect(body).To(HaveKey("id"))
			Expect(body).To(HaveKey("createdAt"))
			Expect(body).NotTo(HaveKey("passwordHash"))
		})

		It("defaults the role to RECEPTION", func() {
			status, body, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
				"email": "desk@clinic.com", "password": "longenough",
			})
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(HaveKeyWithValue("role", "RECEPTION"))
		})

		It("rejects a duplicate email regardless of case", func() {
			status, _, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
				"email": "vet@clinic.com", "password": "longenough",
			})
			Expect(status).To(Equal(http.StatusCreated))

			status, body, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
				"email": "VET@clinic.com", "password": "longenough",
			})
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(HaveKeyWithValue("error", "EMAIL_IN_USE"))
		})

		DescribeTable("reports validation failures",
			func(email, password, role, code string) {
				status, body, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
					"email": email, "password": password, "role": role,
				})
				Expect(status).To(Equal(http.StatusBadRequest))
				Expect(body).To(HaveKeyWithValue("error", code))
			},
			Entry("malformed email", "not-an-email", "longenough", "", "EMAIL_INVALID"),
			Entry("short password", "vet@clinic.com", "short", "", "WEAK_PASSWORD"),
			Entry("unknown role", "vet@clinic.com", "longenough", "OWNER", "ROLE_INVALID"),
		)
	})

	Describe("login and session", func() {
		BeforeEach(func() {
			status, _, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
				"email": "admin@clinic.com", "password": "correct-horse", "role": "ADMIN",
			})
			Expect(status).To(Equal(http.StatusCreated))
		})

		It("does not reveal whether the email exists", func() {
			status, wrongPass, _ := b.do(http.MethodPost, "/api/auth/login", map[string]string{
				"email": "admin@clinic.com", "password": "wrong-password",
			})
			Expect(status).To(Equal(http.StatusUnauthorized))

			status, unknown, _ := b.do(http.MethodPost, "/api/auth/login", map[string]string{
				"email": "ghost@clinic.com", "password": "wrong-password",
			})
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(unknown).To(Equal(wrongPass))
			Expect(unknown).To(HaveKeyWithValue("error", "INVALID_CREDENTIALS"))
		})

		It("logs in, reaches the dashboard and logs out", func() {
			status, body, resp := b.do(http.MethodPost, "/api/auth/login", map[string]string{
				"email": "  Admin@Clinic.com ", "password": "correct-horse",
			})
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(HaveKeyWithValue("ok", true))

			var session *http.Cookie
			for _, c := range resp.Cookies() {
				if c.Name == "access" {
					session = c
				}
			}
			Expect(session).NotTo(BeNil())
			Expect(session.HttpOnly).To(BeTrue())
			Expect(session.SameSite).To(Equal(http.SameSiteStrictMode))
			Expect(session.MaxAge).To(Equal(900))

			status, me, _ := b.do(http.MethodGet, "/api/auth/me", nil)
			Expect(status).To(Equal(http.StatusOK))
			Expect(me).To(HaveKeyWithValue("authenticated", true))
			Expect(me).To(HaveKey("userId"))

			status, dash, _ := b.do(http.MethodGet, "/dashboard", nil)
			Expect(status).To(Equal(http.StatusOK))
			Expect(dash).To(HaveKey("user"))
			user, ok := dash["user"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(user).To(HaveKeyWithValue("email", "admin@clinic.com"))
			Expect(user).To(HaveKeyWithValue("role", "ADMIN"))
			Expect(user["id"]).To(Equal(me["userId"]))

			status, _, _ = b.do(http.MethodPost, "/api/auth/logout", nil)
			Expect(status).To(Equal(http.StatusOK))

			status, me, _ = b.do(http.MethodGet, "/api/auth/me", nil)
			Expect(status).To(Equal(http.StatusOK))
			Expect(me).To(HaveKeyWithValue("authenticated", false))

			status, _, resp = b.do(http.MethodGet, "/dashboard", nil)
			Expect(status).To(Equal(http.StatusSeeOther))
			Expect(resp.Header.Get("Location")).To(Equal("/login"))
		})

		It("redirects an anonymous visitor away from the dashboard", func() {
			status, _, resp := newBrowser().do(http.MethodGet, "/dashboard", nil)
			Expect(status).To(Equal(http.StatusSeeOther))
			Expect(resp.Header.Get("Location")).To(Equal("/login"))
		})
	})

	Describe("user listing", func() {
		It("returns public projections newest first", func() {
			for _, email := range []string{"first@clinic.com", "second@clinic.com", "third@clinic.com"} {
				status, _, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
					"email": email, "password": "longenough",
				})
				Expect(status).To(Equal(http.StatusCreated))
			}

			users := b.list()
			Expect(users).To(HaveLen(3))
			Expect(users[0]).To(HaveKeyWithValue("email", "third@clinic.com"))
			Expect(users[2]).To(HaveKeyWithValue("email", "first@clinic.com"))
			for _, u := range users {
				Expect(u).To(HaveLen(4))
				Expect(u).NotTo(HaveKey("passwordHash"))
			}
		})

		It("lists the same createdAt that registration returned", func() {
			status, created, _ := b.do(http.MethodPost, "/api/auth/register", map[string]string{
				"email": "vet@clinic.com", "password": "longenough", "role": "VET",
			})
			Expect(status).To(Equal(http.StatusCreated))

			users := b.list()
			Expect(users).To(HaveLen(1))
			Expect(users[0]["id"]).To(Equal(created["id"]))
			Expect(users[0]["createdAt"]).To(Equal(created["createdAt"]))
		})

		It("returns an empty array when there are no accounts", func() {
			Expect(b.list()).To(BeEmpty())
		})
	})
})
