// Package provider builds model handles from a provider id.
//
// A [Factory] holds vendor credentials and one [Builder] per provider id.
// Handles are cached by provider and model options, so switching back and
// forth between providers in a session does not recreate SDK clients.
//
//	factory := provider.NewFactory(provider.ConfigFromEnv())
//	handle, err := factory.CreateModel(ctx, "openai", ai.ModelOptions{Model: "gpt-4.1"})
package provider
