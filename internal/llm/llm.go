// Package llm wraps the Anthropic API for bug triage suggestions.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Triage holds the LLM's suggested classification for a bug report.
type Triage struct {
	Category   string `json:"category"`
	Priority   int    `json:"priority"`
	Importance int    `json:"importance"`
	Rationale  string `json:"rationale"`
}

// Client wraps the Anthropic API for triage.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildTriagePrompt constructs the system and user prompts for triage.
func buildTriagePrompt(title, description string) (system string, user string) {
	system = `You triage bug reports for a defect tracker. Return ONLY a JSON object with these fields:
- "category": one of "Ui", "Functionality", "Performance", "Usability", "Security"
- "priority": integer 1-10 for how urgently a fix is needed (10 = drop everything)
- "importance": integer 1-10 for how much the defect matters to users overall
- "rationale": one short sentence explaining the classification

Rules:
- Security issues (injection, auth bypass, data exposure) are always "Security" with priority 8 or higher
- Slowness, memory growth, and timeouts are "Performance"
- Visual glitches and layout problems are "Ui"; confusing-but-working behavior is "Usability"
- Everything else defaults to "Functionality"
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Bug title: ")
	sb.WriteString(title)
	sb.WriteString("\n")
	if description != "" {
		sb.WriteString("\nDescription:\n")
		sb.WriteString(description)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// SuggestTriage sends the bug report to the LLM and returns a suggested
// classification.
func (c *Client) SuggestTriage(ctx context.Context, title, description string) (*Triage, error) {
	systemPrompt, userPrompt := buildTriagePrompt(title, description)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return parseTriage(text)
}

// parseTriage decodes the LLM's response, tolerating markdown fencing.
func parseTriage(text string) (*Triage, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var triage Triage
	if err := json.Unmarshal([]byte(text), &triage); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return &triage, nil
}
