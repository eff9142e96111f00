// Package llm provides the optional audit annotation for results.
// Annotations describe evidence quality for human reviewers and never
// affect verdicts or confidence.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/rkaragin/ldverify/internal/model"
)

// Annotator generates short audit notes with the OpenAI chat API.
type Annotator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewAnnotator creates an annotator from configuration. The API key is
// required; BaseURL is optional and exists for tests and proxies.
func NewAnnotator(cfg model.LLMConfig) (*Annotator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	return &Annotator{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   m,
		timeout: 30 * time.Second,
	}, nil
}

// Annotate produces a 1-2 sentence note on the evidence behind one
// result. Failures are the caller's to log and ignore; a missing
// annotation never degrades the result itself.
func (a *Annotator) Annotate(ctx context.Context, result model.VerificationResult, evidence *model.Evidence) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You review evidence quality for hospital service verification. " +
					"Describe only how well the snippets support the verdict. " +
					"Never assert what is true and never change the verdict.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(result, evidence),
			},
		},
		MaxTokens:   120,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("annotation request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty annotation response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(result model.VerificationResult, evidence *model.Evidence) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Hospital: %s (%s, %s, %d)\n",
		result.Record.Name, result.Record.City, result.Record.State, result.Record.Year)
	fmt.Fprintf(&sb, "Verdict: %s (confidence %.2f)\n", result.Verdict, result.Confidence)
	fmt.Fprintf(&sb, "Matched positive: %s\n", strings.Join(result.MatchedPositive, ", "))
	fmt.Fprintf(&sb, "Matched negative: %s\n", strings.Join(result.MatchedNegative, ", "))

	sb.WriteString("Snippets:\n")
	count := 0
	if evidence != nil {
		for _, s := range evidence.Snippets {
			if count >= 5 {
				break
			}
			if len(s) > 300 {
				s = s[:300]
			}
			fmt.Fprintf(&sb, "- %s\n", s)
			count++
		}
	}
	if count == 0 {
		sb.WriteString("- (none)\n")
	}

	sb.WriteString("\nIn 1-2 sentences, assess how well these snippets support the verdict.")
	return sb.String()
}
