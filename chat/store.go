package chat

import (
	"sync"
	"time"
)

// Message is a single chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a bounded message history
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationStore keeps conversations in memory under two hard caps:
// messages per conversation and total conversations. When the conversation
// cap is hit the least recently updated one is evicted. It never grows
// unbounded.
type ConversationStore struct {
	mu               sync.Mutex
	maxConversations int
	maxMessages      int
	items            map[string]*Conversation
	order            []string
}

// NewConversationStore creates a store with the given caps. Non-positive
// values fall back to safe defaults.
func NewConversationStore(maxConversations, maxMessages int) *ConversationStore {
	if maxConversations <= 0 {
		maxConversations = 100
	}
	if maxMessages <= 0 {
		maxMessages = 10
	}
	return &ConversationStore{
		maxConversations: maxConversations,
		maxMessages:      maxMessages,
		items:            make(map[string]*Conversation),
	}
}

// Get returns a snapshot of a conversation
func (s *ConversationStore) Get(id string) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.items[id]
	if !ok {
		return nil, false
	}

	return snapshot(conv), true
}

// History returns a copy of the message history, empty when the
// conversation does not exist
func (s *ConversationStore) History(id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.items[id]
	if !ok {
		return nil
	}

	out := make([]Message, len(conv.Messages))
	copy(out, conv.Messages)
	return out
}

// Append adds messages to a conversation, creating it if needed, and
// returns a snapshot of the result
func (s *ConversationStore) Append(id string, msgs ...Message) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	conv, ok := s.items[id]
	if !ok {
		s.evictIfFull()
		conv = &Conversation{ID: id, CreatedAt: now}
		s.items[id] = conv
	}

	conv.Messages = append(conv.Messages, msgs...)
	if overflow := len(conv.Messages) - s.maxMessages; overflow > 0 {
		conv.Messages = conv.Messages[overflow:]
	}
	conv.UpdatedAt = now

	s.touch(id)

	return snapshot(conv)
}

// Delete removes a conversation, reporting whether it existed
func (s *ConversationStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}

	delete(s.items, id)
	s.remove(id)
	return true
}

// Len returns the number of stored conversations
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// evictIfFull drops the least recently updated conversation to make room.
// Caller holds the lock.
func (s *ConversationStore) evictIfFull() {
	for len(s.items) >= s.maxConversations && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
}

func (s *ConversationStore) touch(id string) {
	s.remove(id)
	s.order = append(s.order, id)
}

func (s *ConversationStore) remove(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func snapshot(conv *Conversation) *Conversation {
	out := &Conversation{
		ID:        conv.ID,
		Messages:  make([]Message, len(conv.Messages)),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	copy(out.Messages, conv.Messages)
	return out
}
