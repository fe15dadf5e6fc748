package userapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-users-api/middleware/authware"
)

// DefaultContextKey is the Locals key validated claims are stored under
const DefaultContextKey = "user"

// PublicPaths are served without authentication. Matching is exact or by
// path-segment prefix, so "/docs" also covers "/docs/oauth2-redirect".
var PublicPaths = []string{
	"/",
	"/docs",
	"/redoc",
	"/openapi.json",
	"/health",
	"/users/register",
	"/users/login",
}

// NewErrorHandler builds the top level fiber error handler. Every error that
// reaches it is logged with full detail and answered with the envelope;
// unclassified errors leave as an opaque 500.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		richErr := CoerceError(err)

		logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"code", richErr.TextCode,
			"error", err,
		)

		if len(richErr.Metadata) > 0 {
			logger.Debug("error metadata", "details", print.MaybePrettyJSON(richErr.Metadata))
		}

		return RespondError(c, err)
	}
}

// NewServer assembles the fiber application: global error handler, the
// request authenticator guarding everything outside PublicPaths, and the
// user routes. The middleware stores claims under the controller's context
// key so both sides read the same Locals entry.
func NewServer(ctrl *APIController, tokens TokenService, logger Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "go-users-api",
		ErrorHandler: NewErrorHandler(logger),
	})

	app.Use(authware.New(authware.Config{
		ExcludedPaths: PublicPaths,
		ContextKey:    ctrl.contextKey,
		Verifier: authware.VerifierFunc(func(tokenString string) (authware.AuthClaims, error) {
			return tokens.Verify(tokenString)
		}),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return RespondError(c, err)
		},
		Logger: logger,
	}))

	RegisterRoutes(app, ctrl)

	return app
}

// RegisterRoutes mounts the user endpoints
func RegisterRoutes(app fiber.Router, ctrl *APIController) {
	app.Get("/", ctrl.Home)
	app.Get("/health", ctrl.Health)

	users := app.Group("/users")
	users.Post("/register", ctrl.Register)
	users.Post("/login", ctrl.Login)
	users.Get("/me", ctrl.Me)
	users.Get("/", ctrl.Index)
	users.Get("/:id", ctrl.Show)
	users.Put("/:id/password", ctrl.ChangePassword)
	users.Put("/:id/email", ctrl.ChangeEmail)
}
