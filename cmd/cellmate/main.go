// Command cellmate hosts the notebook assistant agent.
//
// Configuration is read from ~/.cellmate/config.yaml and
// ./.cellmate/config.yaml; API keys come from the environment or a .env
// file:
//
//	ANTHROPIC_API_KEY - Anthropic API key
//	OPENAI_API_KEY    - OpenAI API key (OPENAI_BASE_URL for compatible servers)
//	GOOGLE_API_KEY    - Gemini API key
//	AWS_REGION        - Bedrock region; credentials use the AWS default chain
//
// Usage:
//
//	cellmate serve            # HTTP + SSE server for the notebook front end
//	cellmate chat             # terminal chat
//	cellmate skills [query]   # list installed skills
//	cellmate mcp              # expose the tool registry over MCP stdio
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
