package cellmate

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderBedrock   Provider = "bedrock"
)

// Providers lists the built-in providers in display order.
func Providers() []Provider {
	return []Provider{ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderBedrock}
}
