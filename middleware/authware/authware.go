package authware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// ErrMissingToken covers every extraction failure: no header, wrong scheme,
// or an empty token after the scheme.
var ErrMissingToken = errors.New("Missing authentication token", errors.CategoryAuth).
	WithTextCode("MissingTokenError").
	WithCode(errors.CodeUnauthorized)

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the root package.
type AuthClaims interface {
	Subject() string
	UserID() (int64, error)
	Roles() []string
	HasRole(role string) bool
}

// TokenVerifier validates raw tokens without tying the middleware to a
// specific signing implementation.
type TokenVerifier interface {
	Verify(tokenString string) (AuthClaims, error)
}

// VerifierFunc adapts a function into a TokenVerifier.
type VerifierFunc func(tokenString string) (AuthClaims, error)

// Verify satisfies the TokenVerifier interface.
func (f VerifierFunc) Verify(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

// Logger is the logging surface the middleware needs.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool
	// ExcludedPaths pass through without a token, matched exact or by
	// path-segment prefix
	ExcludedPaths []string
	// Verifier is required
	Verifier TokenVerifier
	// ContextKey is the Locals key claims are stored under
	ContextKey string
	// AuthScheme prefixes the credential in the Authorization header
	AuthScheme   string
	ErrorHandler func(*fiber.Ctx, error) error
	Logger       Logger
}

// New returns a handler that authenticates every request outside the
// excluded paths and stores the validated claims on the request context.
// Failures short-circuit with the response envelope; the downstream handler
// never runs.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		if isExcludedPath(cfg.ExcludedPaths, c.Path()) {
			if cfg.Logger != nil {
				cfg.Logger.Debug("public request",
					"method", c.Method(),
					"path", c.Path(),
				)
			}
			return c.Next()
		}

		raw, err := TokenFromHeader(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if err != nil {
			logRejection(cfg.Logger, c, err)
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.Verifier.Verify(raw)
		if err != nil {
			logRejection(cfg.Logger, c, err)
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.Logger != nil {
			cfg.Logger.Debug("authenticated request",
				"method", c.Method(),
				"path", c.Path(),
				"subject", claims.Subject(),
			)
		}

		return c.Next()
	}
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Verifier == nil {
		panic("AUTH: middleware configuration: Verifier is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

// logRejection records the auth failure before the response is written; the
// middleware answers directly, so the app-level error handler never sees it.
func logRejection(logger Logger, c *fiber.Ctx, err error) {
	if logger == nil {
		return
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		logger.Error("authentication rejected",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		return
	}

	logger.Error("authentication rejected",
		"method", c.Method(),
		"path", c.Path(),
		"code", richErr.TextCode,
		"message", richErr.Message,
	)
}

// isExcludedPath matches exact paths or segment prefixes: "/docs" covers
// "/docs" and "/docs/oauth2" but not "/docsx".
func isExcludedPath(excluded []string, path string) bool {
	for _, p := range excluded {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// TokenFromHeader extracts the raw token from an Authorization header value.
// The scheme prefix is literal and the token must be non-empty.
func TokenFromHeader(header, authScheme string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}

	prefix := authScheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}

	token := header[len(prefix):]
	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
			WithTextCode("InvalidTokenError").
			WithCode(errors.CodeUnauthorized)
	}

	status := richErr.Code
	if status <= 0 {
		status = fiber.StatusUnauthorized
	}

	return c.Status(status).JSON(fiber.Map{
		"data": nil,
		"error": fiber.Map{
			"code":    richErr.TextCode,
			"message": richErr.Message,
		},
	})
}
