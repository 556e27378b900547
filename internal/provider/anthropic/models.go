package anthropic

// ChatModel is an Anthropic model id.
type ChatModel string

const (
	ClaudeOpus45   ChatModel = "claude-opus-4-5"
	ClaudeSonnet45 ChatModel = "claude-sonnet-4-5"
	ClaudeHaiku45  ChatModel = "claude-haiku-4-5"

	// DefaultChatModel is used when no model is configured.
	DefaultChatModel ChatModel = ClaudeSonnet45
)

// DefaultContextWindow applies to every current Claude model.
const DefaultContextWindow = 200_000

// String returns the model identifier string.
func (m ChatModel) String() string { return string(m) }
