package users

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-users/middleware/jwtware"
)

// RouteAuthenticator wires the token guard into HTTP routes. The guard runs
// in one of two modes: mandatory routes reject every validation failure with
// a single generic 401, optional routes let the request continue anonymously.
type RouteAuthenticator struct {
	tokenService TokenService
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewHTTPAuthenticator returns a new RouteAuthenticator
func NewHTTPAuthenticator(tokenService TokenService, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:          cfg,
		tokenService: tokenService,
		Logger:       defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

// ProtectedRoute guards a route with mandatory authentication: requests
// without a valid token never reach the handler.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return a.makeGuard(cfg, errorHandler)
}

// OptionalRoute guards a route with optional authentication: a valid token
// attaches the caller's claims, anything else leaves the request anonymous.
// A failure here is indistinguishable from an absent header on purpose.
func (a *RouteAuthenticator) OptionalRoute(cfg Config) router.MiddlewareFunc {
	return a.makeGuard(cfg, a.MakeAPIAuthErrorHandler(true))
}

func (a *RouteAuthenticator) makeGuard(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		TokenValidator: tokenValidatorAdapter{a.tokenService},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	})
}

// MakeAPIAuthErrorHandler builds the guard's failure handler. Failures are
// classified for logging, but the response never distinguishes them: an
// expired token, a bad signature, a malformed header, and no header at all
// produce the same outcome for a given mode.
func (a *RouteAuthenticator) MakeAPIAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsTokenSignatureError(err) {
			richErr = ErrTokenSignature
		} else if IsTokenMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		a.Logger.Info(
			"Authentication rejected",
			"error", richErr.Message,
			"text_code", richErr.TextCode,
			"path", ctx.OriginalURL(),
		)

		return ctx.JSON(router.StatusUnauthorized, router.ViewContext{
			"error": "authentication failed",
		})
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return c.JSON(router.StatusUnauthorized, router.ViewContext{
			"error": "authentication failed",
		})
	default:
		return c.JSON(richErr.Code, router.ViewContext{
			"error": richErr.Message,
		})
	}
}

// tokenValidatorAdapter bridges TokenService to the middleware's validator
// without an import cycle.
type tokenValidatorAdapter struct {
	ts TokenService
}

func (v tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
