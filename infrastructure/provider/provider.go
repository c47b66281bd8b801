// Package provider wraps chat completion backends behind a small interface.
package provider

import (
	"context"
	"errors"
)

// ErrUnsupportedOperation indicates the provider is not configured for the request.
var ErrUnsupportedOperation = errors.New("operation not supported by this provider")

// Message is one chat message.
type Message struct {
	role    string
	content string
}

// NewMessage creates a Message.
func NewMessage(role, content string) Message {
	return Message{role: role, content: content}
}

// Role returns the message role ("system", "user" or "assistant").
func (m Message) Role() string { return m.role }

// Content returns the message content.
func (m Message) Content() string { return m.content }

// SystemMessage creates a system message.
func SystemMessage(content string) Message { return NewMessage("system", content) }

// UserMessage creates a user message.
func UserMessage(content string) Message { return NewMessage("user", content) }

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message { return NewMessage("assistant", content) }

// ChatCompletionRequest is a conversation to complete.
type ChatCompletionRequest struct {
	messages       []Message
	maxTokens      int
	temperature    float64
	hasTemperature bool
}

// NewChatCompletionRequest creates a request. Zero limits use the backend default.
func NewChatCompletionRequest(messages []Message) ChatCompletionRequest {
	msgs := make([]Message, len(messages))
	copy(msgs, messages)
	return ChatCompletionRequest{messages: msgs}
}

// WithMaxTokens returns a copy with the completion token limit set.
func (r ChatCompletionRequest) WithMaxTokens(n int) ChatCompletionRequest {
	r.maxTokens = n
	return r
}

// WithTemperature returns a copy with the sampling temperature set.
// Zero is a real setting (greedy decoding), distinct from leaving it unset.
func (r ChatCompletionRequest) WithTemperature(t float64) ChatCompletionRequest {
	r.temperature = t
	r.hasTemperature = true
	return r
}

// Messages returns a copy of the messages.
func (r ChatCompletionRequest) Messages() []Message {
	msgs := make([]Message, len(r.messages))
	copy(msgs, r.messages)
	return msgs
}

// MaxTokens returns the token limit.
func (r ChatCompletionRequest) MaxTokens() int { return r.maxTokens }

// Temperature returns the sampling temperature.
func (r ChatCompletionRequest) Temperature() float64 { return r.temperature }

// HasTemperature reports whether a temperature was set.
func (r ChatCompletionRequest) HasTemperature() bool { return r.hasTemperature }

// ChatCompletionResponse is the first choice of a completion.
type ChatCompletionResponse struct {
	content      string
	finishReason string
	usage        Usage
}

// NewChatCompletionResponse creates a ChatCompletionResponse.
func NewChatCompletionResponse(content, finishReason string, usage Usage) ChatCompletionResponse {
	return ChatCompletionResponse{content: content, finishReason: finishReason, usage: usage}
}

// Content returns the generated text.
func (r ChatCompletionResponse) Content() string { return r.content }

// FinishReason returns why generation stopped.
func (r ChatCompletionResponse) FinishReason() string { return r.finishReason }

// Usage returns token accounting.
func (r ChatCompletionResponse) Usage() Usage { return r.usage }

// Usage is token accounting for one call.
type Usage struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// NewUsage creates a Usage.
func NewUsage(prompt, completion, total int) Usage {
	return Usage{promptTokens: prompt, completionTokens: completion, totalTokens: total}
}

// PromptTokens returns the prompt token count.
func (u Usage) PromptTokens() int { return u.promptTokens }

// CompletionTokens returns the completion token count.
func (u Usage) CompletionTokens() int { return u.completionTokens }

// TotalTokens returns the total token count.
func (u Usage) TotalTokens() int { return u.totalTokens }

// TextGenerator completes chat conversations.
type TextGenerator interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

// ProviderError carries the failed operation and upstream status.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{operation: operation, statusCode: statusCode, message: message, cause: cause}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.cause != nil && e.cause.Error() != e.message {
		return e.operation + ": " + e.message + ": " + e.cause.Error()
	}
	return e.operation + ": " + e.message
}

// Unwrap returns the cause.
func (e *ProviderError) Unwrap() error { return e.cause }

// Operation returns the failed operation.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the upstream HTTP status, or 0.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the upstream message.
func (e *ProviderError) Message() string { return e.message }

// IsRateLimited reports an HTTP 429.
func (e *ProviderError) IsRateLimited() bool { return e.statusCode == 429 }
