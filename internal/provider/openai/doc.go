// Package openai adapts the OpenAI Chat Completions API to
// [cellmate.ModelHandle].
//
// Streams request usage in the final chunk. Tool results are sent as one
// tool message per result, matching the API's expectations.
package openai
