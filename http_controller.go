package users

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// RegisterRequest is the payload for creating a new account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate runs payload validation. Only structural rules live here; the
// uniqueness of username and email is decided by the authenticator.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

// LoginRequest is the payload for authenticating with credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// HTTPController handles the credential and user HTTP routes.
type HTTPController struct {
	authenticator Authenticator
	users         Users
	guard         *RouteAuthenticator
	cfg           Config
	logger        Logger
	Debug         bool
}

// NewHTTPController creates a new HTTP controller.
func NewHTTPController(authenticator Authenticator, users Users, guard *RouteAuthenticator, cfg Config) *HTTPController {
	return &HTTPController{
		authenticator: authenticator,
		users:         users,
		guard:         guard,
		cfg:           cfg,
		logger:        defLogger{},
	}
}

func (c *HTTPController) WithLogger(logger Logger) *HTTPController {
	c.logger = logger
	return c
}

// RegisterRoutes registers the auth and user routes. The user collection is
// behind the mandatory guard; /me takes the optional guard so it can answer
// for anonymous callers too.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	protected := c.guard.ProtectedRoute(c.cfg, c.guard.MakeAPIAuthErrorHandler(false))
	optional := c.guard.OptionalRoute(c.cfg)

	group.Post("/auth/register", c.Register)
	group.Post("/auth/login", c.Login)
	group.Get("/users", c.Index, protected)
	group.Get("/users/:id", c.Show, protected)
	group.Get("/me", c.Me, optional)
}

// Register creates a new account and returns a fresh token alongside the
// public view of the user.
func (c *HTTPController) Register(ctx router.Context) error {
	payload := RegisterRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return c.respondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.respondError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"validation": err.Error()}))
	}

	result, err := c.authenticator.Register(ctx.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		return c.respondError(ctx, err)
	}

	if c.Debug {
		c.logger.Debug("Register result: %s", print.MaybePrettyJSON(result.User))
	}

	return ctx.JSON(router.StatusCreated, result)
}

// Login verifies credentials and returns a fresh token.
func (c *HTTPController) Login(ctx router.Context) error {
	payload := LoginRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return c.respondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.respondError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"validation": err.Error()}))
	}

	result, err := c.authenticator.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return c.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// Index lists all users. Guarded: only authenticated callers reach this.
func (c *HTTPController) Index(ctx router.Context) error {
	records, err := c.users.List(ctx.Context())
	if err != nil {
		return c.respondError(ctx, err)
	}

	response := make([]*PublicUser, 0, len(records))
	for _, record := range records {
		response = append(response, record.Public())
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"users": response,
	})
}

// Show returns a single user by id.
func (c *HTTPController) Show(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.respondError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid user id").
			WithCode(errors.CodeBadRequest))
	}

	record, err := c.users.GetByID(ctx.Context(), id)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.respondError(ctx, ErrUserNotFound)
		}
		return c.respondError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record.Public())
}

// Me reports the caller's identity. Behind the optional guard, so an
// anonymous request is a valid outcome, not an error.
func (c *HTTPController) Me(ctx router.Context) error {
	claims, ok := GetClaims(ctx.Context())
	if !ok {
		return ctx.JSON(router.StatusOK, router.ViewContext{
			"authenticated": false,
		})
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"authenticated": true,
		"user_id":       claims.UserID(),
		"username":      claims.Username(),
	})
}

// respondError maps rich errors onto HTTP responses. Auth failures stay
// generic so the body never leaks whether the username, password, or token
// was the problem.
func (c *HTTPController) respondError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error":   richErr.Message,
			"details": richErr.Metadata,
		})
	case errors.CategoryConflict:
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": richErr.Message,
		})
	case errors.CategoryAuth, errors.CategoryAuthz:
		return ctx.JSON(router.StatusUnauthorized, router.ViewContext{
			"error": richErr.Message,
		})
	case errors.CategoryNotFound:
		return ctx.JSON(router.StatusNotFound, router.ViewContext{
			"error": richErr.Message,
		})
	default:
		c.logger.Error("Unhandled controller error: %s", err)
		return ctx.JSON(router.StatusInternalServerError, router.ViewContext{
			"error": "internal server error",
		})
	}
}
