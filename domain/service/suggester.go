package service

import "context"

// SuggestionService asks an external model for extract-function suggestions.
type SuggestionService interface {
	// Suggest returns the raw model output for the given function.
	// firstLine is the file line number of the first line of code.
	Suggest(ctx context.Context, code string, firstLine int) (string, error)
}
