package chat

import (
	"context"

	"github.com/goliatone/go-errors"
	userapi "github.com/goliatone/go-users-api"
	"github.com/google/uuid"
)

// ErrConversationNotFound is returned when a conversation id is unknown,
// including ones that were evicted.
var ErrConversationNotFound = errors.New("Conversation not found", errors.CategoryNotFound).
	WithTextCode("ConversationNotFoundError").
	WithCode(errors.CodeNotFound)

// Service is a thin wrapper around an OpenAI-compatible provider. It owns
// the conversation memory and the prompt selection, nothing more.
type Service struct {
	provider   Provider
	store      *ConversationStore
	maxHistory int
	logger     userapi.Logger
}

// NewService creates the chat service
func NewService(provider Provider, store *ConversationStore, maxHistory int) *Service {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Service{
		provider:   provider,
		store:      store,
		maxHistory: maxHistory,
		logger:     noopLogger{},
	}
}

func (s *Service) WithLogger(logger userapi.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// ChatResult is the reply along with the conversation it belongs to
type ChatResult struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// Chat forwards a user message to the provider with the system prompt and
// the bounded history prepended, then records both sides of the exchange.
// A blank conversation id starts a new conversation.
func (s *Service) Chat(ctx context.Context, conversationID, promptName, message string) (*ChatResult, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	history := s.store.History(conversationID)
	if overflow := len(history) - s.maxHistory; overflow > 0 {
		history = history[overflow:]
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: PromptByName(promptName)})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: message})

	reply, err := s.provider.CreateChatCompletion(ctx, messages)
	if err != nil {
		s.logger.Error("chat completion failed", "conversation_id", conversationID, "error", err)
		return nil, err
	}

	s.store.Append(conversationID,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: reply},
	)

	s.logger.Debug("chat completion", "conversation_id", conversationID)

	return &ChatResult{
		ConversationID: conversationID,
		Reply:          reply,
	}, nil
}

// Conversation returns a stored conversation
func (s *Service) Conversation(id string) (*Conversation, error) {
	conv, ok := s.store.Get(id)
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// DeleteConversation removes a conversation
func (s *Service) DeleteConversation(id string) error {
	if !s.store.Delete(id) {
		return ErrConversationNotFound
	}
	return nil
}

// Models lists the provider's model ids
func (s *Service) Models(ctx context.Context) ([]string, error) {
	return s.provider.Models(ctx)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
