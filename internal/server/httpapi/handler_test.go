package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/logging"
	"github.com/readease/readease/internal/server/auth"
	"github.com/readease/readease/internal/server/config"
	"github.com/readease/readease/internal/server/models"
	"github.com/readease/readease/internal/server/repositories/memory"
	"github.com/readease/readease/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureMailer struct {
	last string
}

func (m *captureMailer) SendResetPassword(ctx context.Context, to string, token string) error {
	m.last = token
	return nil
}

type testEnv struct {
	handler http.Handler
	users   *memory.UserRepository
	tokens  *memory.TokenRepository
	mailer  *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	env := &testEnv{
		users:  memory.NewUserRepository(),
		tokens: memory.NewTokenRepository(),
		mailer: &captureMailer{},
	}

	svc := services.NewAuthService(services.Deps{
		Users:  env.users,
		Roles:  memory.NewRoleRepository(),
		Tokens: env.tokens,
		Codec: auth.NewCodec([]byte("test-secret"), auth.ExpirationPolicy{
			Access:        cfg.AccessTokenValidityDuration,
			Refresh:       cfg.RefreshTokenValidityDuration,
			ResetPassword: cfg.ResetPasswordTokenValidityDuration,
		}),
		Hasher: auth.NewBcryptHasher(bcrypt.MinCost),
		Mailer: env.mailer,
		Logger: logging.NewNopLogger(),
	}, cfg)

	env.handler = NewHTTPServer(":0", logging.NewNopLogger(), svc, CookieConfig{}).Handler()
	return env
}

func performRequest(h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.RefreshTokenCookieName {
			return c
		}
	}
	return nil
}

func TestExampleFlow(t *testing.T) {
	env := newTestEnv(t)
	h := env.handler

	rec := performRequest(h, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var su map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &su))
	assert.Equal(t, "a@x.com", su["email"])
	assert.NotEmpty(t, su["userID"])
	assert.Contains(t, su, "avatar")
	assert.NotContains(t, su, "password")

	rec = performRequest(h, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists!!!", rec.Body.String())

	rec = performRequest(h, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var lr map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	assert.NotEmpty(t, lr["token"])
	assert.Equal(t, su["userID"], lr["userID"])
	assert.Nil(t, lr["currentDocumentReading"])
	assert.Equal(t, []any{}, lr["documents"])
	assert.Equal(t, []any{}, lr["collections"])

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 604800, cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
	assert.NotEqual(t, lr["token"], cookie.Value)

	rec = performRequest(h, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"pw1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Can not sign in now!!!", rec.Body.String())
	assert.Nil(t, refreshCookie(rec))

	rec = performRequest(h, http.MethodPut, "/api/auth/logout", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Log out successfully", rec.Body.String())
	assert.Equal(t, 0, env.tokens.Len())

	rec = performRequest(h, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"pw1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginStep1(t *testing.T) {
	env := newTestEnv(t)
	performRequest(env.handler, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)

	rec := performRequest(env.handler, http.MethodPost, "/api/auth/login/step1", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email is valid", rec.Body.String())

	rec = performRequest(env.handler, http.MethodPost, "/api/auth/login/step1", `{"email":"b@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is not valid!!!", rec.Body.String())
}

func TestLoginStep2_Rejections(t *testing.T) {
	env := newTestEnv(t)
	performRequest(env.handler, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)

	rec := performRequest(env.handler, http.MethodPost, "/api/auth/login/step2", `{"email":"b@x.com","password":"pw1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email is not valid!!!", rec.Body.String())

	rec = performRequest(env.handler, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password is not valid", rec.Body.String())
}

func TestLoginStep2_Library(t *testing.T) {
	env := newTestEnv(t)
	rec := performRequest(env.handler, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw1"}`)
	var su map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &su))

	read := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	env.users.AddDocument(su["userID"], &models.Document{ID: "d1", Name: "unread"})
	env.users.AddDocument(su["userID"], &models.Document{ID: "d2", Name: "read", LastReadAt: &read})
	env.users.AddCollection(su["userID"], &models.Collection{ID: "c1", Name: "Novels"})
	require.NoError(t, env.users.SetLastReadingDocument("a@x.com", "d2"))

	rec = performRequest(env.handler, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var lr struct {
		Current     *models.Document     `json:"currentDocumentReading"`
		Documents   []models.Document    `json:"documents"`
		Collections []*models.Collection `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lr))
	require.Len(t, lr.Documents, 2)
	assert.Equal(t, "d2", lr.Documents[0].ID)
	assert.Equal(t, "d1", lr.Documents[1].ID)
	require.NotNil(t, lr.Current)
	assert.Equal(t, "d2", lr.Current.ID)
	require.Len(t, lr.Collections, 1)
	assert.Equal(t, "Novels", lr.Collections[0].Name)
}

func TestLogout_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	rec := performRequest(env.handler, http.MethodPut, "/api/auth/logout", `{"email":"ghost@x.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", rec.Body.String())
}

func TestForgotPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	h := env.handler
	performRequest(h, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"old"}`)

	rec := performRequest(h, http.MethodPost, "/api/auth/forgot-password/step1", `{"email":"ghost@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email invalid!!!!", rec.Body.String())

	rec = performRequest(h, http.MethodPost, "/api/auth/forgot-password/step1", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Body.String(), common.StrongPasswordLength)
	token := env.mailer.last
	require.NotEmpty(t, token)
	assert.NotContains(t, rec.Body.String(), token)

	q := "?token=" + url.QueryEscape(token)

	rec = performRequest(h, http.MethodGet, "/api/auth/forgot-password/step2"+q, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(h, http.MethodGet, "/api/auth/forgot-password/step2?token=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Token invalid!!!", rec.Body.String())

	rec = performRequest(h, http.MethodGet, "/api/auth/forgot-password/step2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(h, http.MethodPost, "/api/auth/forgot-password/step3"+q, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request invalid!!!", rec.Body.String())

	rec = performRequest(h, http.MethodPost, "/api/auth/forgot-password/step3"+q, `{"password":"new"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(h, http.MethodPost, "/api/auth/forgot-password/step3"+q, `{"password":"again"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request invalid!!!", rec.Body.String())

	rec = performRequest(h, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"new"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStrongPasswordEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := performRequest(env.handler, http.MethodGet, "/api/auth/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Body.String(), common.StrongPasswordLength)
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/auth/signup"},
		{http.MethodPost, "/api/auth/login/step1"},
		{http.MethodPost, "/api/auth/login/step2"},
		{http.MethodPut, "/api/auth/logout"},
		{http.MethodPost, "/api/auth/forgot-password/step1"},
		{http.MethodPost, "/api/auth/forgot-password/step3?token=x"},
	} {
		rec := performRequest(env.handler, tc.method, tc.path, `{"email":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
		assert.Equal(t, "Request invalid!!!", rec.Body.String(), tc.path)
	}
}

// brokenService fails every call with the given error.
type brokenService struct {
	err error
}

func (b *brokenService) SignUp(context.Context, string, string) (*models.User, error) {
	return nil, b.err
}
func (b *brokenService) EmailExists(context.Context, string) (bool, error) { return false, b.err }
func (b *brokenService) Login(context.Context, string, string) (*services.LoginResult, error) {
	return nil, b.err
}
func (b *brokenService) Logout(context.Context, string) error                 { return b.err }
func (b *brokenService) ForgotPassword(context.Context, string) error         { return b.err }
func (b *brokenService) VerifyResetToken(context.Context, string) error       { return b.err }
func (b *brokenService) ResetPassword(context.Context, string, string) error { return b.err }

func TestInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, err := range []error{common.ErrorInternal, common.ErrRoleNotFound, errors.New("boom")} {
		h := NewHTTPServer(":0", logging.NewNopLogger(), &brokenService{err: err}, CookieConfig{}).Handler()

		rec := performRequest(h, http.MethodPost, "/api/auth/signup", `{"email":"a@x.com","password":"pw"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", rec.Body.String())

		rec = performRequest(h, http.MethodPost, "/api/auth/login/step1", `{"email":"a@x.com"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		rec = performRequest(h, http.MethodPut, "/api/auth/logout", `{"email":"a@x.com"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		rec = performRequest(h, http.MethodGet, "/api/auth/forgot-password/step2?token=t", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}
}

func TestCookieAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &cookieService{res: &services.LoginResult{
		User:          &models.User{ID: "u1", Email: "a@x.com"},
		AccessToken:   "acc",
		RefreshToken:  "ref",
		RefreshMaxAge: 2 * time.Hour,
		Library:       &models.Library{Documents: []*models.Document{}, Collections: []*models.Collection{}},
	}}
	h := NewHTTPServer(":0", logging.NewNopLogger(), svc, CookieConfig{Domain: "readease.app", Secure: true}).Handler()

	rec := performRequest(h, http.MethodPost, "/api/auth/login/step2", `{"email":"a@x.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	c := refreshCookie(rec)
	require.NotNil(t, c)
	assert.Equal(t, "ref", c.Value)
	assert.Equal(t, 7200, c.MaxAge)
	assert.Equal(t, "readease.app", c.Domain)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
}

type cookieService struct {
	brokenService
	res *services.LoginResult
}

func (c *cookieService) Login(context.Context, string, string) (*services.LoginResult, error) {
	return c.res, nil
}
