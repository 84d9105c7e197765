// Package llm defines the interface for large language model backends.
//
// The tutor uses an LLM for two optional jobs: rephrasing feedback so it does
// not sound canned, and producing short explanations of a question's answer on
// request. Both degrade gracefully — when no LLM is configured the engine
// falls back to templates — so the interface stays deliberately narrow: a
// single blocking Complete call, no streaming, no tool calling.
package llm

import "context"

// Message is a single conversational message sent to the model.
type Message struct {
	// Role is the message role: "user" or "assistant".
	Role string
	// Content is the message text.
	Content string
}

// CompletionRequest carries everything needed for one completion call.
type CompletionRequest struct {
	// SystemPrompt is prepended as a system message when non-empty.
	SystemPrompt string
	// Messages is the conversation so far, oldest first.
	Messages []Message
	// Temperature controls sampling randomness; zero means provider default.
	Temperature float64
	// MaxTokens caps the response length; zero means provider default.
	MaxTokens int
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	// Content is the generated text.
	Content string
	// Usage is the token accounting, when the backend reports it.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete performs a blocking completion and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
