package userapi

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// APIController serves the user endpoints
type APIController struct {
	users      *UserService
	auther     Authenticator
	logger     Logger
	contextKey string
}

// NewAPIController creates a controller over the user service and authenticator
func NewAPIController(users *UserService, auther Authenticator) *APIController {
	return &APIController{
		users:      users,
		auther:     auther,
		logger:     defLogger{},
		contextKey: DefaultContextKey,
	}
}

func (a *APIController) WithLogger(logger Logger) *APIController {
	a.logger = logger
	return a
}

func (a *APIController) WithContextKey(key string) *APIController {
	if key != "" {
		a.contextKey = key
	}
	return a
}

// Home answers the service banner
func (a *APIController) Home(c *fiber.Ctx) error {
	return Respond(c, fiber.Map{
		"service": "go-users-api",
		"status":  "running",
	})
}

// Health is the liveness probe
func (a *APIController) Health(c *fiber.Ctx) error {
	return Respond(c, fiber.Map{"status": "ok"})
}

// RegisterRequest payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required, validation.Length(MinUsernameLength, MaxUsernameLength)),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid registration payload")
}

// RegisterResponse is the public shape of a freshly created account
type RegisterResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func (a *APIController) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return err.WithTextCode(TextCodeValidation)
	}

	user, err := a.users.Register(c.UserContext(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		return err
	}

	return Respond(c, RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login payload")
}

func (a *APIController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return err.WithTextCode(TextCodeValidation)
	}

	result, err := a.auther.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return Respond(c, result)
}

// Me answers the profile of the authenticated subject
func (a *APIController) Me(c *fiber.Ctx) error {
	claims, err := a.sessionClaims(c)
	if err != nil {
		return err
	}

	id, err := claims.UserID()
	if err != nil {
		return err
	}

	user, err := a.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return Respond(c, user)
}

// Index lists accounts, admin only
func (a *APIController) Index(c *fiber.Ctx) error {
	claims, err := a.sessionClaims(c)
	if err != nil {
		return err
	}

	if !claims.HasRole(RoleAdmin) {
		return ErrNotAuthorized
	}

	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)

	records, err := a.users.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}

	return Respond(c, records)
}

func (a *APIController) Show(c *fiber.Ctx) error {
	id, err := targetID(c)
	if err != nil {
		return err
	}

	user, err := a.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return Respond(c, user)
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.OldPassword, validation.Required),
			validation.Field(&r.NewPassword, validation.Required),
		)
	}, "Invalid password change payload")
}

func (a *APIController) ChangePassword(c *fiber.Ctx) error {
	id, err := targetID(c)
	if err != nil {
		return err
	}

	if err := a.authorizeTarget(c, id); err != nil {
		return err
	}

	payload := new(ChangePasswordRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequestBody(err)
	}

	if err := payload.Validate(); err != nil {
		return err.WithTextCode(TextCodeValidation)
	}

	user, err := a.users.ChangePassword(c.UserContext(), id, payload.OldPassword, payload.NewPassword)
	if err != nil {
		return err
	}

	return Respond(c, user)
}

// ChangeEmailRequest payload. An empty new_email clears the address.
type ChangeEmailRequest struct {
	NewEmail string `json:"new_email"`
}

func (a *APIController) ChangeEmail(c *fiber.Ctx) error {
	id, err := targetID(c)
	if err != nil {
		return err
	}

	if err := a.authorizeTarget(c, id); err != nil {
		return err
	}

	payload := new(ChangeEmailRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequestBody(err)
	}

	user, err := a.users.ChangeEmail(c.UserContext(), id, payload.NewEmail)
	if err != nil {
		return err
	}

	return Respond(c, user)
}

func (a *APIController) sessionClaims(c *fiber.Ctx) (AuthClaims, error) {
	claims, ok := c.Locals(a.contextKey).(AuthClaims)
	if !ok {
		return nil, ErrMissingToken
	}
	return claims, nil
}

// authorizeTarget allows the subject itself or an admin to act on a target
// account.
func (a *APIController) authorizeTarget(c *fiber.Ctx, target int64) error {
	claims, err := a.sessionClaims(c)
	if err != nil {
		return err
	}

	uid, err := claims.UserID()
	if err != nil {
		return err
	}

	if uid == target || claims.HasRole(RoleAdmin) {
		return nil
	}

	a.logger.Warn("rejected cross-account request", "subject", uid, "target", target)

	return ErrNotAuthorized
}

func targetID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, errors.New("Invalid user id", errors.CategoryValidation).
			WithTextCode(TextCodeValidation).
			WithCode(fiber.StatusUnprocessableEntity)
	}
	return int64(id), nil
}

func badRequestBody(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "Invalid request body").
		WithTextCode(TextCodeValidation).
		WithCode(fiber.StatusUnprocessableEntity)
}
