// Package bedrock serves Anthropic models hosted on AWS Bedrock through
// [cellmate.ModelHandle].
//
// Requests use InvokeModel with the Anthropic messages body, so the whole
// reply arrives at once and is relayed as a single delta followed by the
// final event. Credentials and region come from the default AWS chain.
package bedrock
