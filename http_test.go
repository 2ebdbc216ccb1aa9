package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*users.RouteAuthenticator, users.TokenService) {
	t.Helper()

	cfg := testConfig{}
	svc := users.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenLifetime(), cfg.GetIssuer(), nil, nil)

	guard, err := users.NewHTTPAuthenticator(svc, cfg)
	require.NoError(t, err)

	return guard, svc
}

func signTestToken(t *testing.T, svc users.TokenService) string {
	t.Helper()

	token, err := svc.Generate(users.IdentityFromUser(&users.User{
		ID:       uuid.New(),
		Username: "ren",
		Email:    "ren@example.com",
	}))
	require.NoError(t, err)
	return token
}

func okHandler(ctx router.Context) error {
	return ctx.Next()
}

func TestProtectedRouteValidToken(t *testing.T) {
	guard, svc := newTestGuard(t)
	token := signTestToken(t, svc)

	middleware := guard.ProtectedRoute(testConfig{}, guard.MakeAPIAuthErrorHandler(false))
	handler := middleware(okHandler)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + token
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Context").Return(context.Background()).Maybe()
	ctx.On("SetContext", mock.Anything).Return().Maybe()

	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestProtectedRouteRejectsUniformly(t *testing.T) {
	guard, _ := newTestGuard(t)

	expiredSvc := users.NewTokenService([]byte(testConfig{}.GetSigningKey()), -time.Minute, testConfig{}.GetIssuer(), nil, nil)
	foreignSvc := users.NewTokenService([]byte("some-other-key"), time.Hour, testConfig{}.GetIssuer(), nil, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "Missing header", header: ""},
		{name: "Wrong scheme", header: "Basic abc123"},
		{name: "Garbage token", header: "Bearer not.a.token"},
		{name: "Expired token", header: "Bearer " + signTestToken(t, expiredSvc)},
		{name: "Foreign signature", header: "Bearer " + signTestToken(t, foreignSvc)},
	}

	middleware := guard.ProtectedRoute(testConfig{}, guard.MakeAPIAuthErrorHandler(false))
	handler := middleware(okHandler)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			if tt.header != "" {
				ctx.HeadersM["Authorization"] = tt.header
			}
			ctx.On("GetString", "Authorization", "").Return(tt.header)
			ctx.On("OriginalURL").Return("/users").Maybe()

			var payload router.ViewContext
			ctx.On("JSON", router.StatusUnauthorized, mock.Anything).
				Run(func(args mock.Arguments) {
					payload = args.Get(1).(router.ViewContext)
				}).
				Return(nil)

			err := handler(ctx)
			require.NoError(t, err)

			// every failure mode produces the same anonymous 401
			assert.False(t, ctx.NextCalled)
			assert.Equal(t, "authentication failed", payload["error"])
			ctx.AssertNotCalled(t, "Locals", "user", mock.Anything)
		})
	}
}

func TestOptionalRouteValidToken(t *testing.T) {
	guard, svc := newTestGuard(t)
	token := signTestToken(t, svc)

	middleware := guard.OptionalRoute(testConfig{})
	handler := middleware(okHandler)

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer " + token
	ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
	ctx.On("Locals", "user", mock.Anything).Return(nil)
	ctx.On("Context").Return(context.Background()).Maybe()
	ctx.On("SetContext", mock.Anything).Return().Maybe()

	err := handler(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestOptionalRouteProceedsAnonymously(t *testing.T) {
	guard, _ := newTestGuard(t)

	foreignSvc := users.NewTokenService([]byte("some-other-key"), time.Hour, testConfig{}.GetIssuer(), nil, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "Missing header", header: ""},
		{name: "Garbage token", header: "Bearer not.a.token"},
		{name: "Foreign signature", header: "Bearer " + signTestToken(t, foreignSvc)},
	}

	middleware := guard.OptionalRoute(testConfig{})
	handler := middleware(okHandler)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			if tt.header != "" {
				ctx.HeadersM["Authorization"] = tt.header
			}
			ctx.On("GetString", "Authorization", "").Return(tt.header)

			err := handler(ctx)
			require.NoError(t, err)

			// a broken token is treated exactly like no token at all: the
			// request continues without an identity
			assert.True(t, ctx.NextCalled)
			ctx.AssertNotCalled(t, "Locals", "user", mock.Anything)
			ctx.AssertNotCalled(t, "JSON", mock.Anything, mock.Anything)
		})
	}
}
