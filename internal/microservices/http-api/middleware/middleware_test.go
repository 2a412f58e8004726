package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodgram/internal/microservices/http-api/models"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (service.Caller, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(service.Caller), args.Error(1)
}

func (m *MockAuthService) SetPassword(ctx context.Context, caller service.Caller, current, next string) error {
	return m.Called(ctx, caller, current, next).Error(0)
}

func setupRouter(svc service.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(svc))
	handlers := append(extra, func(c *gin.Context) {
		caller := CallerFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID, "token": TokenFrom(c)})
	})
	r.GET("/probe", handlers...)
	return r
}

func doGet(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_Anonymous(t *testing.T) {
	svc := new(MockAuthService)
	w := doGet(setupRouter(svc), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"token":""}`, w.Body.String())
	svc.AssertNotCalled(t, "ValidateToken", mock.Anything, mock.Anything)
}

func TestAuthenticate_AcceptsTokenAndBearer(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("ValidateToken", mock.Anything, "abc").Return(service.Caller{UserID: 5, Role: models.RoleUser}, nil)
	r := setupRouter(svc)

	for _, header := range []string{"Token abc", "Bearer abc"} {
		w := doGet(r, header)
		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.JSONEq(t, `{"user_id":5,"token":"abc"}`, w.Body.String())
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("ValidateToken", mock.Anything, "bad").Return(service.Caller{}, &service.Error{Kind: service.ErrUnauthorized, Message: "invalid token"})
	svc.On("ValidateToken", mock.Anything, "boom").Return(service.Caller{}, errors.New("redis down"))
	r := setupRouter(svc)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Token").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Token bad").Code)
	assert.Equal(t, http.StatusInternalServerError, doGet(r, "Token boom").Code)
}

func TestRequireAuthAndAdmin(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("ValidateToken", mock.Anything, "user").Return(service.Caller{UserID: 1, Role: models.RoleUser}, nil)
	svc.On("ValidateToken", mock.Anything, "admin").Return(service.Caller{UserID: 2, Role: models.RoleAdmin}, nil)

	authed := setupRouter(svc, RequireAuth())
	assert.Equal(t, http.StatusUnauthorized, doGet(authed, "").Code)
	assert.Equal(t, http.StatusOK, doGet(authed, "Token user").Code)

	admin := setupRouter(svc, RequireAdmin())
	assert.Equal(t, http.StatusUnauthorized, doGet(admin, "").Code)
	assert.Equal(t, http.StatusForbidden, doGet(admin, "Token user").Code)
	assert.Equal(t, http.StatusOK, doGet(admin, "Token admin").Code)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per ip")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.1.1.1"))

	now = now.Add(10 * time.Minute)
	l.Allow("3.3.3.3")
	assert.Len(t, l.visitors, 1, "idle buckets are swept")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewIPRateLimiter(0.001, 1)))
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	w := doGet(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func rateLimitedGet(r http.Handler, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.RemoteAddr = "203.0.113.7:40000"
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.Use(RateLimit(NewIPRateLimiter(0.001, 1)))
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, rateLimitedGet(r, fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, []int{200, 429, 429, 429, 429}, codes)
}

func TestRateLimitMiddleware_TrustedProxyForwardsClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies([]string{"203.0.113.7"}))
	r.Use(RateLimit(NewIPRateLimiter(0.001, 1)))
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, rateLimitedGet(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, rateLimitedGet(r, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, rateLimitedGet(r, "10.0.0.1"))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	doGet(r, "")
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "path=/probe")
	assert.Contains(t, out, "status=418")
}
