package suggester

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cuboulder-se-research/em-assist/infrastructure/provider"
)

//go:embed prompt.yaml
var defaultPromptYAML []byte

// Example is one worked exchange shown to the model before the real request.
type Example struct {
	Code      string `yaml:"code"`
	FirstLine int    `yaml:"first_line"`
	Reply     string `yaml:"reply"`
}

// Prompt is a few-shot prompt for extract-function suggestions.
type Prompt struct {
	System   string    `yaml:"system"`
	Examples []Example `yaml:"examples"`
}

// DefaultPrompt returns the built-in prompt.
func DefaultPrompt() Prompt {
	p, err := ParsePrompt(defaultPromptYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt: %v", err))
	}
	return p
}

// ParsePrompt decodes a YAML prompt definition.
func ParsePrompt(data []byte) (Prompt, error) {
	var p Prompt
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Prompt{}, fmt.Errorf("decode prompt: %w", err)
	}
	if strings.TrimSpace(p.System) == "" {
		return Prompt{}, errors.New("decode prompt: system message is empty")
	}
	for i, ex := range p.Examples {
		if ex.FirstLine < 1 {
			p.Examples[i].FirstLine = 1
		}
	}
	return p, nil
}

// Messages renders the conversation for code starting at firstLine.
func (p Prompt) Messages(code string, firstLine int) []provider.Message {
	msgs := make([]provider.Message, 0, 2+2*len(p.Examples))
	msgs = append(msgs, provider.SystemMessage(strings.TrimSpace(p.System)))
	for _, ex := range p.Examples {
		msgs = append(msgs,
			provider.UserMessage(NumberLines(ex.Code, ex.FirstLine)),
			provider.AssistantMessage(strings.TrimSpace(ex.Reply)),
		)
	}
	msgs = append(msgs, provider.UserMessage(NumberLines(code, firstLine)))
	return msgs
}

// NumberLines prefixes each line of code with its file line number.
func NumberLines(code string, firstLine int) string {
	code = strings.TrimSuffix(code, "\n")
	lines := strings.Split(code, "\n")
	width := len(fmt.Sprint(firstLine + len(lines) - 1))

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d: %s", width, firstLine+i, strings.TrimSuffix(line, "\r"))
	}
	return b.String()
}
