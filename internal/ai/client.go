// Package ai wraps the Gemini chat-completion API behind the small
// Complete interface the pipeline needs.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hubtoday/weeklyagent/internal/metrics"
)

// Completer is the chat-completion surface consumed by the extractor
// and the fallback supplementer.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error)
}

// Client talks to Gemini.
type Client struct {
	client *genai.Client
	model  string
	budget *Budget
}

// NewClient creates a Gemini-backed client. maxRequests caps model
// calls per run, 0 disables the cap.
func NewClient(ctx context.Context, apiKey, model string, maxRequests int) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client: client,
		model:  model,
		budget: NewBudget(maxRequests),
	}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Complete sends one system+user exchange and returns the raw text.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error) {
	if err := c.budget.Use(); err != nil {
		return "", err
	}
	metrics.Global.IncrementAIRequests()

	model := c.client.GenerativeModel(c.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	model.SetTemperature(temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}
