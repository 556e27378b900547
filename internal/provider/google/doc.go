// Package google adapts the Gemini API to [cellmate.ModelHandle].
//
// System messages become the request's system instruction. Gemini matches
// function responses by function name, so tool results are sent under the
// name of the call they answer.
package google
