package userapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

const (
	TextCodeUserNotFound       = "UserNotFoundError"
	TextCodeEmailExists        = "EmailAlreadyExistsError"
	TextCodeUsernameExists     = "UsernameAlreadyExistsError"
	TextCodeInvalidCredentials = "InvalidCredentialsError"
	TextCodeMissingToken       = "MissingTokenError"
	TextCodeInvalidToken       = "InvalidTokenError"
	TextCodeExpiredToken       = "ExpiredTokenError"
	TextCodeInvalidPassword    = "InvalidPasswordError"
	TextCodeInvalidEmail       = "InvalidEmailFormatError"
	TextCodeValidation         = "ValidationError"
	TextCodeNotAuthorized      = "UserNotAuthorizedError"
	TextCodeInternal           = "InternalServerError"
	TextCodeDatabaseTimeout    = "DatabaseTimeoutException"
	TextCodeExternalTimeout    = "ExternalAPITimeoutException"
)

// ErrUserNotFound is returned when a user lookup comes back empty.
var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailExists is returned when the email is already taken by another account.
var ErrEmailExists = errors.New("Email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrUsernameExists is returned when the username is already taken.
var ErrUsernameExists = errors.New("Username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameExists).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials collapses not-found and bad-password login failures
// so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("Invalid username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMissingToken is returned when no bearer token is present on the request.
var ErrMissingToken = errors.New("Missing authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidToken is returned for malformed tokens or bad signatures.
var ErrInvalidToken = errors.New("Invalid authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrExpiredToken is returned when a token is past its expiry claim.
var ErrExpiredToken = errors.New("Token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeExpiredToken).
	WithCode(errors.CodeUnauthorized)

// ErrPasswordTooShort is returned when the password is under the minimum byte length.
var ErrPasswordTooShort = errors.New("Password must be at least 6 characters", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPassword).
	WithCode(fiber.StatusUnprocessableEntity)

// ErrPasswordTooLong is returned when the password exceeds the maximum byte length.
var ErrPasswordTooLong = errors.New("Password must be less than 128 characters", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPassword).
	WithCode(fiber.StatusUnprocessableEntity)

// ErrInvalidPassword is returned when a password does not verify against the stored hash.
var ErrInvalidPassword = errors.New("Invalid password", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPassword).
	WithCode(fiber.StatusUnprocessableEntity)

// ErrInvalidEmailFormat is returned when a non-empty email fails format validation.
var ErrInvalidEmailFormat = errors.New("Invalid email format", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(fiber.StatusUnprocessableEntity)

// ErrNotAuthorized is returned when the authenticated subject may not act on the target user.
var ErrNotAuthorized = errors.New("Not authorized to perform this action", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthorized).
	WithCode(errors.CodeUnauthorized)

// ErrDatabaseTimeout is returned when a store operation exceeds its deadline.
var ErrDatabaseTimeout = errors.New("Database operation timed out", errors.CategoryOperation).
	WithTextCode(TextCodeDatabaseTimeout).
	WithCode(fiber.StatusGatewayTimeout)

// ErrExternalAPITimeout is returned when an upstream provider call exceeds its deadline.
var ErrExternalAPITimeout = errors.New("External API request timed out", errors.CategoryOperation).
	WithTextCode(TextCodeExternalTimeout).
	WithCode(fiber.StatusGatewayTimeout)

// Response is the envelope every endpoint answers with. Exactly one of Data
// and Error is non-null.
type Response struct {
	Data  any            `json:"data"`
	Error *ResponseError `json:"error"`
}

// ResponseError carries the symbolic code and message for a failed request.
type ResponseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Respond writes a success envelope.
func Respond(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Data: data})
}

// RespondError maps err onto the envelope and its HTTP status. Errors that do
// not carry taxonomy information are coerced to an opaque 500 so internals
// never leak to clients.
func RespondError(c *fiber.Ctx, err error) error {
	richErr := CoerceError(err)

	body := Response{
		Error: &ResponseError{
			Code:    richErr.TextCode,
			Message: richErr.Message,
		},
	}

	if richErr.Category == errors.CategoryValidation {
		if details := richErr.ValidationMap(); len(details) > 0 {
			body.Error.Details = details
		}
	}

	return c.Status(StatusFor(richErr)).JSON(body)
}

// CoerceError normalizes any error into a rich error carrying taxonomy data.
func CoerceError(err error) *errors.Error {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.TextCode == "" {
			richErr = richErr.Clone().WithTextCode(TextCodeInternal)
		}
		return richErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return errors.Wrap(err, errors.CategoryBadInput, fiberErr.Message).
			WithTextCode(TextCodeValidation).
			WithCode(fiberErr.Code)
	}

	return errors.Wrap(err, errors.CategoryInternal, "Internal server error").
		WithTextCode(TextCodeInternal).
		WithCode(errors.CodeInternal)
}

// StatusFor resolves the HTTP status for a rich error, falling back to the
// category default when no explicit code was set.
func StatusFor(err *errors.Error) int {
	if err == nil {
		return fiber.StatusInternalServerError
	}

	if err.Code > 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusUnprocessableEntity
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryOperation:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// HasTextCode reports whether err carries the given symbolic code.
func HasTextCode(err error, textCode string) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == textCode
	}
	return false
}

// IsTokenExpiredError reports whether err represents an expired token.
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeExpiredToken)
}
