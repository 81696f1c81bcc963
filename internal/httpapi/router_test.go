// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/inventoryapp/inventoryauth/internal/auth"
	"github.com/inventoryapp/inventoryauth/internal/auth/authtest"
	"github.com/inventoryapp/inventoryauth/internal/httpapi"
)

const (
	userEmail    = "morgan@example.com"
	userPassword = "Passw0rd!"
)

type response struct {
	Status  int
	Header  http.Header
	Message string           `json:"message"`
	Data    map[string]any   `json:"data"`
	Errors  []map[string]any `json:"errors"`
}

func call(h http.Handler, method, path string, body any, token string) response {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := response{Status: rec.Code, Header: rec.Header()}
	if rec.Body.Len() > 0 {
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed(), rec.Body.String())
	}
	return res
}

type recordedRequest struct {
	route  string
	status int
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (f *fakeRecorder) RecordRequest(route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedRequest{route, status})
}

var _ = Describe("Router", func() {
	var (
		store    *authtest.Store
		router   http.Handler
		recorder *fakeRecorder
		logs     *bytes.Buffer
	)

	login := func(email, password string) response {
		return call(router, http.MethodPost, "/auth/login",
			map[string]string{"email": email, "password": password}, "")
	}

	tokens := func() (access, refresh string) {
		res := login(userEmail, userPassword)
		Expect(res.Status).To(Equal(http.StatusOK))
		return res.Data["accessToken"].(string), res.Data["refreshToken"].(string)
	}

	BeforeEach(func() {
		store = authtest.NewStore()
		authtest.SeedDirectory(store)
		_, err := authtest.SeedCredential(store, auth.NewArgon2idHasher(), userEmail, userPassword, authtest.UserRoleID)
		Expect(err).NotTo(HaveOccurred())

		svc, err := authtest.NewService(store, authtest.NewClock(time.Now().UTC()))
		Expect(err).NotTo(HaveOccurred())

		recorder = &fakeRecorder{}
		logs = &bytes.Buffer{}
		router = httpapi.NewRouter(httpapi.RouterConfig{
			Service: svc,
			Logger:  slog.New(slog.NewJSONHandler(logs, nil)),
			Metrics: recorder,
		})
	})

	Describe("POST /auth/login", func() {
		It("issues a token pair", func() {
			res := login(userEmail, userPassword)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Message).To(Equal(httpapi.MsgLoginOK))
			Expect(res.Data).To(HaveKeyWithValue("accessToken", Not(BeEmpty())))
			Expect(res.Data).To(HaveKeyWithValue("refreshToken", Not(BeEmpty())))
			Expect(res.Data).To(HaveKey("accessTokenExpiresAt"))
			Expect(res.Data).To(HaveKey("refreshTokenExpiresAt"))
		})

		It("rejects a wrong password with the generic message", func() {
			res := login(userEmail, "Wrong-passw0rd")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgInvalidCredentials))
		})

		It("gives an unknown email the same answer", func() {
			res := login("nobody@example.com", userPassword)
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgInvalidCredentials))
		})

		It("returns field errors for invalid input", func() {
			res := login("not-an-email", "short")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Errors).To(HaveLen(2))
			Expect(res.Errors).To(ContainElement(HaveKeyWithValue("field", "email")))
			Expect(res.Errors).To(ContainElement(HaveKeyWithValue("field", "password")))
		})

		It("rejects a malformed body", func() {
			res := call(router, http.MethodPost, "/auth/login", `{"email":`, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(httpapi.MsgInvalidBody))
		})
	})

	Describe("POST /auth/refresh-token", func() {
		It("exchanges a refresh token exactly once", func() {
			access, refresh := tokens()

			res := call(router, http.MethodPost, "/auth/refresh-token", map[string]string{"token": refresh}, "")
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Message).To(Equal(httpapi.MsgRefreshOK))
			Expect(res.Data["accessToken"]).NotTo(Equal(access))
			Expect(res.Data["refreshToken"]).To(Equal(refresh))

			res = call(router, http.MethodPost, "/auth/refresh-token", map[string]string{"token": refresh}, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgTokenAlreadyUsed))
		})

		It("rejects an unknown token", func() {
			res := call(router, http.MethodPost, "/auth/refresh-token", map[string]string{"token": "nope"}, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgInvalidToken))
		})

		It("requires a token", func() {
			res := call(router, http.MethodPost, "/auth/refresh-token", map[string]string{}, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Errors).To(ContainElement(HaveKeyWithValue("field", "token")))
		})
	})

	Describe("POST /auth/logout", func() {
		It("succeeds twice and revokes the pair", func() {
			access, refresh := tokens()

			for range 2 {
				res := call(router, http.MethodPost, "/auth/logout", nil, access)
				Expect(res.Status).To(Equal(http.StatusOK))
				Expect(res.Message).To(Equal(httpapi.MsgLogoutOK))
			}

			res := call(router, http.MethodGet, "/auth/me", nil, access)
			Expect(res.Status).To(Equal(http.StatusUnauthorized))

			res = call(router, http.MethodPost, "/auth/refresh-token", map[string]string{"token": refresh}, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgTokenRevoked))
		})

		It("rejects a missing or unknown token with 400", func() {
			res := call(router, http.MethodPost, "/auth/logout", nil, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgInvalidToken))

			res = call(router, http.MethodPost, "/auth/logout", nil, "garbage")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /auth/me", func() {
		It("returns the caller's profile", func() {
			access, _ := tokens()

			res := call(router, http.MethodGet, "/auth/me", nil, access)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Data).To(HaveKeyWithValue("firstName", "Morgan"))
			Expect(res.Data).To(HaveKeyWithValue("role", "Employee"))
			Expect(res.Data).To(HaveKeyWithValue("supplierId", BeNumerically("==", authtest.SupplierID)))
		})

		DescribeTable("answers 401 for a bad bearer",
			func(header string) {
				req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
				if header != "" {
					req.Header.Set("Authorization", header)
				}
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusUnauthorized))
				Expect(rec.Body.String()).To(ContainSubstring(auth.MsgInvalidToken))
			},
			Entry("no header", ""),
			Entry("wrong scheme", "Basic dXNlcjpwYXNz"),
			Entry("unparseable token", "Bearer not.a.jwt"),
		)
	})

	Describe("PUT /auth/reset-password", func() {
		It("rejects a wrong old password", func() {
			access, _ := tokens()
			res := call(router, http.MethodPut, "/auth/reset-password",
				map[string]string{"oldPassword": "Wrong-passw0rd", "newPassword": "N3w-Passw0rd"}, access)
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgWrongOldPassword))
		})

		It("enforces the password policy", func() {
			access, _ := tokens()
			res := call(router, http.MethodPut, "/auth/reset-password",
				map[string]string{"oldPassword": userPassword, "newPassword": "alllowercase"}, access)
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Errors).To(ContainElement(HaveKeyWithValue("field", "newPassword")))
		})

		It("changes the password", func() {
			access, _ := tokens()
			res := call(router, http.MethodPut, "/auth/reset-password",
				map[string]string{"oldPassword": userPassword, "newPassword": "N3w-Passw0rd"}, access)
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Message).To(Equal(httpapi.MsgPasswordOK))

			Expect(login(userEmail, userPassword).Status).To(Equal(http.StatusBadRequest))
			Expect(login(userEmail, "N3w-Passw0rd").Status).To(Equal(http.StatusOK))
		})

		It("requires authentication", func() {
			res := call(router, http.MethodPut, "/auth/reset-password",
				map[string]string{"oldPassword": userPassword, "newPassword": "N3w-Passw0rd"}, "")
			Expect(res.Status).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /auth/register", func() {
		candidate := func(email string) map[string]any {
			return map[string]any{
				"firstName":     "Jordan",
				"lastName":      "Blakely",
				"email":         email,
				"password":      "Passw0rd!",
				"passwordMatch": "Passw0rd!",
				"roleId":        authtest.UserRoleID,
				"supplierId":    authtest.SupplierID,
			}
		}

		It("registers once and rejects the same email again", func() {
			res := call(router, http.MethodPost, "/auth/register", candidate("jordan@example.com"), "")
			Expect(res.Status).To(Equal(http.StatusOK))
			Expect(res.Message).To(Equal(httpapi.MsgRegisteredOK))

			res = call(router, http.MethodPost, "/auth/register", candidate("jordan@example.com"), "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(Equal(auth.MsgEmailTaken))
		})

		It("reports mismatched passwords", func() {
			body := candidate("casey@example.com")
			body["passwordMatch"] = "Different1!"
			res := call(router, http.MethodPost, "/auth/register", body, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Errors).To(ContainElement(HaveKeyWithValue("field", "passwordMatch")))
		})

		It("rejects an unknown role", func() {
			body := candidate("riley@example.com")
			body["roleId"] = 99
			res := call(router, http.MethodPost, "/auth/register", body, "")
			Expect(res.Status).To(Equal(http.StatusBadRequest))
			Expect(res.Message).To(ContainSubstring("99"))
		})
	})

	Describe("plumbing", func() {
		It("echoes or mints a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.Header.Set(httpapi.RequestIDHeader, "req-123")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Header().Get(httpapi.RequestIDHeader)).To(Equal("req-123"))

			res := call(router, http.MethodGet, "/auth/me", nil, "")
			Expect(res.Header.Get(httpapi.RequestIDHeader)).To(HaveLen(26))
		})

		It("records the matched route", func() {
			login(userEmail, userPassword)
			call(router, http.MethodGet, "/nowhere", nil, "")

			Expect(recorder.seen).To(ConsistOf(
				recordedRequest{"/auth/login", http.StatusOK},
				recordedRequest{"", http.StatusNotFound},
			))
		})

		It("logs each request", func() {
			login(userEmail, "Wrong-passw0rd")
			Expect(logs.String()).To(ContainSubstring(`"msg":"request completed"`))
			Expect(logs.String()).To(ContainSubstring(`"status":400`))
		})

		It("answers unknown methods with 405", func() {
			res := call(router, http.MethodDelete, "/auth/login", nil, "")
			Expect(res.Status).To(Equal(http.StatusMethodNotAllowed))
		})
	})
})

// failingService returns a plain error from every call.
type failingService struct{ httpapi.Service }

func (failingService) Login(context.Context, string, string) (*auth.TokenPair, error) {
	return nil, errors.New("connection reset by peer")
}

func (failingService) Logout(context.Context, string) error {
	panic("boom")
}

var _ = Describe("Router failures", func() {
	var (
		router   http.Handler
		logs     *bytes.Buffer
		recorder *fakeRecorder
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		recorder = &fakeRecorder{}
		router = httpapi.NewRouter(httpapi.RouterConfig{
			Service: failingService{},
			Logger:  slog.New(slog.NewJSONHandler(logs, nil)),
			Metrics: recorder,
		})
	})

	It("hides unexpected errors behind a 500", func() {
		res := call(router, http.MethodPost, "/auth/login",
			map[string]string{"email": userEmail, "password": userPassword}, "")
		Expect(res.Status).To(Equal(http.StatusInternalServerError))
		Expect(res.Message).To(Equal(httpapi.MsgUnexpected))
		Expect(logs.String()).To(ContainSubstring("connection reset by peer"))
	})

	It("recovers from a panic", func() {
		res := call(router, http.MethodPost, "/auth/logout", nil, "tok")
		Expect(res.Status).To(Equal(http.StatusInternalServerError))
		Expect(res.Message).To(Equal(httpapi.MsgUnexpected))
		Expect(logs.String()).To(ContainSubstring("panic recovered"))
	})

	It("logs and records a panicking request as a 500", func() {
		call(router, http.MethodPost, "/auth/logout", nil, "tok")

		Expect(recorder.seen).To(Equal([]recordedRequest{{"/auth/logout", http.StatusInternalServerError}}))

		var completed []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
			var rec map[string]any
			Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed(), line)
			if rec["msg"] == "request completed" {
				completed = append(completed, rec)
			}
		}
		Expect(completed).To(HaveLen(1))
		Expect(completed[0]).To(HaveKeyWithValue("status", BeNumerically("==", http.StatusInternalServerError)))
		Expect(completed[0]).To(HaveKeyWithValue("level", "ERROR"))
	})
})

var _ = Describe("Rate limiting", func() {
	It("answers 429 once a client's burst is spent", func() {
		store := authtest.NewStore()
		authtest.SeedDirectory(store)
		svc, err := authtest.NewService(store, authtest.NewClock(time.Now().UTC()))
		Expect(err).NotTo(HaveOccurred())

		fixed := time.Now()
		limiter := httpapi.NewRateLimiter(httpapi.RateLimiterConfig{
			Burst: 2,
			Rate:  1,
			Clock: func() time.Time { return fixed },
		})
		DeferCleanup(limiter.Close)

		router := httpapi.NewRouter(httpapi.RouterConfig{
			Service: svc,
			Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
			Limiter: limiter,
		})

		body := map[string]string{"email": "a@example.com", "password": "whatever1"}
		for range 2 {
			Expect(call(router, http.MethodPost, "/auth/login", body, "").Status).To(Equal(http.StatusBadRequest))
		}
		res := call(router, http.MethodPost, "/auth/login", body, "")
		Expect(res.Status).To(Equal(http.StatusTooManyRequests))
		Expect(res.Message).To(Equal(httpapi.MsgTooManyRequests))
		Expect(res.Header.Get("Retry-After")).To(Equal("1"))

		res = call(router, http.MethodPost, "/auth/logout", nil, "")
		Expect(res.Status).To(Equal(http.StatusBadRequest), "logout is not limited")
	})
})
