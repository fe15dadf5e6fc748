package chat

// DefaultPrompt is used when a request does not name one
const DefaultPrompt = "assistant"

// Prompts are the named system prompts the wrapper can prepend to a
// conversation.
var Prompts = map[string]string{
	"assistant": "You are a helpful assistant. Answer concisely and accurately.",
	"support":   "You are a support agent for a user account service. Help users with registration, login, and profile questions. Never reveal internal details.",
	"translator": "You are a translator. Translate the user's message to English, " +
		"preserving tone and meaning. Reply with the translation only.",
}

// PromptByName resolves a prompt, falling back to the default
func PromptByName(name string) string {
	if p, ok := Prompts[name]; ok {
		return p
	}
	return Prompts[DefaultPrompt]
}
