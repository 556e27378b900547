package google

// ChatModel is a Gemini model id.
type ChatModel string

const (
	Gemini3Pro        ChatModel = "gemini-3.0-pro"
	Gemini25Pro       ChatModel = "gemini-2.5-pro"
	Gemini25Flash     ChatModel = "gemini-2.5-flash"
	Gemini25FlashLite ChatModel = "gemini-2.5-flash-lite"

	// DefaultChatModel is used when no model is configured.
	DefaultChatModel ChatModel = Gemini25Flash
)

// DefaultContextWindow applies to every current Gemini chat model.
const DefaultContextWindow = 1_048_576

// String returns the model identifier string.
func (m ChatModel) String() string { return string(m) }
