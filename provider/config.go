package provider

import "os"

// Config carries the credentials and endpoints the built-in builders need.
type Config struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `yaml:"openai_api_key,omitempty"`
	OpenAIBaseURL   string `yaml:"openai_base_url,omitempty"`
	GoogleAPIKey    string `yaml:"google_api_key,omitempty"`
	// BedrockRegion pins the AWS region. Empty uses the default chain.
	BedrockRegion string `yaml:"bedrock_region,omitempty"`
}

// ConfigFromEnv reads the conventional vendor environment variables.
func ConfigFromEnv() Config {
	return Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		GoogleAPIKey:    firstNonEmpty(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY")),
		BedrockRegion:   firstNonEmpty(os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION")),
	}
}

// Merge returns c with empty fields filled from other.
func (c Config) Merge(other Config) Config {
	c.AnthropicAPIKey = firstNonEmpty(c.AnthropicAPIKey, other.AnthropicAPIKey)
	c.OpenAIAPIKey = firstNonEmpty(c.OpenAIAPIKey, other.OpenAIAPIKey)
	c.OpenAIBaseURL = firstNonEmpty(c.OpenAIBaseURL, other.OpenAIBaseURL)
	c.GoogleAPIKey = firstNonEmpty(c.GoogleAPIKey, other.GoogleAPIKey)
	c.BedrockRegion = firstNonEmpty(c.BedrockRegion, other.BedrockRegion)
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
