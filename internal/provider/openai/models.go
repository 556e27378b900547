package openai

// ChatModel is an OpenAI model id.
type ChatModel string

const (
	GPT52    ChatModel = "gpt-5.2"
	GPT5     ChatModel = "gpt-5"
	GPT5Mini ChatModel = "gpt-5-mini"
	GPT41    ChatModel = "gpt-4.1"
	GPT4o    ChatModel = "gpt-4o"
	O4Mini   ChatModel = "o4-mini"

	// DefaultChatModel is used when no model is configured.
	DefaultChatModel ChatModel = GPT52
)

// String returns the model identifier string.
func (m ChatModel) String() string { return string(m) }

// ContextWindow returns the model's context size in tokens, or 0 if unknown.
func (m ChatModel) ContextWindow() int {
	switch m {
	case GPT52, GPT5, GPT5Mini:
		return 400_000
	case GPT41:
		return 1_047_576
	case GPT4o:
		return 128_000
	case O4Mini:
		return 200_000
	default:
		return 0
	}
}
