package chat

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	userapi "github.com/goliatone/go-users-api"
)

// Controller serves the AI wrapper endpoints. All routes sit behind the
// request authenticator, chat is never public.
type Controller struct {
	svc    *Service
	logger userapi.Logger
}

// NewController creates the chat controller
func NewController(svc *Service) *Controller {
	return &Controller{svc: svc, logger: noopLogger{}}
}

func (a *Controller) WithLogger(logger userapi.Logger) *Controller {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// RegisterRoutes mounts the chat endpoints under /ai
func RegisterRoutes(app fiber.Router, ctrl *Controller) {
	ai := app.Group("/ai")
	ai.Post("/chat", ctrl.Chat)
	ai.Get("/models", ctrl.Models)
	ai.Get("/conversations/:id", ctrl.ShowConversation)
	ai.Delete("/conversations/:id", ctrl.DeleteConversation)
}

// ChatRequest payload
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Prompt         string `json:"prompt"`
}

// Validate will run validation rules
func (r ChatRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Message, validation.Required, validation.Length(1, 4000)),
		)
	}, "Invalid chat payload")
}

func (a *Controller) Chat(c *fiber.Ctx) error {
	payload := new(ChatRequest)

	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Invalid request body").
			WithTextCode(userapi.TextCodeValidation).
			WithCode(fiber.StatusUnprocessableEntity)
	}

	if err := payload.Validate(); err != nil {
		return err.WithTextCode(userapi.TextCodeValidation)
	}

	result, err := a.svc.Chat(c.UserContext(), payload.ConversationID, payload.Prompt, payload.Message)
	if err != nil {
		return err
	}

	a.logger.Debug("chat turn", "conversation_id", result.ConversationID)

	return userapi.Respond(c, result)
}

func (a *Controller) Models(c *fiber.Ctx) error {
	models, err := a.svc.Models(c.UserContext())
	if err != nil {
		return err
	}

	return userapi.Respond(c, fiber.Map{"models": models})
}

func (a *Controller) ShowConversation(c *fiber.Ctx) error {
	conv, err := a.svc.Conversation(c.Params("id"))
	if err != nil {
		return err
	}

	return userapi.Respond(c, conv)
}

func (a *Controller) DeleteConversation(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := a.svc.DeleteConversation(id); err != nil {
		return err
	}

	return userapi.Respond(c, fiber.Map{"deleted": id})
}
