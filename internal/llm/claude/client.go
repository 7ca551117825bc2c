// Package claude implements the summarization collaborator on the
// Anthropic API. Used when no external summarization pipeline is
// configured.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const responseTokens = 1024

const systemPrompt = `You analyze production error logs. Explain what the errors mean in
plain terms an on-call engineer can act on. Include a severity level
(low, medium, high, critical) and a short list of suggested actions,
prefixed "severity:" and "actions:" so they can be machine-extracted.`

// Summarizer sends error text to the Anthropic messages API.
type Summarizer struct {
	client anthropic.Client
	model  string
}

// New creates a Claude-backed summarizer for the given API key and model.
func New(apiKey, model string) *Summarizer {
	return &Summarizer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Summarize runs one single-turn completion over the error text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: responseTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: messages call: %w", err)
	}
	return textOf(msg), nil
}

// textOf concatenates the text blocks of a response, skipping any other
// block types.
func textOf(msg *anthropic.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
