// Package llm implements the Suggester and Analyzer interfaces against
// the OpenAI Chat Completions API, grounded on the teacher's retry-loop
// HTTP client shape.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

const defaultChatModel = "gpt-4o-mini"

type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewOpenAIClient(apiKey string, log *logger.Logger) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		model:      defaultChatModel,
		baseURL:    "https://api.openai.com/v1",
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log.With("adapter", "OpenAIClient"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// httpStatusError implements httpx.HTTPStatusCoder so the generic retry
// policy can classify it.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string         { return fmt.Sprintf("openai: status %d: %s", e.status, e.body) }
func (e *httpStatusError) HTTPStatusCode() int    { return e.status }

func (c *OpenAIClient) chat(ctx context.Context, system, user string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	var result string
	err = adapters.WithRetry(ctx, c.log, "openai.chat", func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 400 {
			statusErr := &httpStatusError{status: resp.StatusCode, body: string(body)}
			if resp.StatusCode < 500 && resp.StatusCode != 408 && resp.StatusCode != 429 {
				return &adapters.BadRequest{Err: statusErr}
			}
			return statusErr
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return err
		}
		if len(parsed.Choices) == 0 {
			return fmt.Errorf("openai: empty choices")
		}
		result = parsed.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

const suggestSystemPrompt = `You propose hypotheses that a short passage of text might bear on. Given existing hypotheses and a segment, respond with one hypothesis per line, prefixed "EXISTING:<id>:" to reuse an existing hypothesis you are highly confident applies, or "NEW:" to propose a new one, followed by the hypothesis text.`

func (c *OpenAIClient) SuggestHypotheses(ctx context.Context, segmentText string, existing []adapters.ExistingHypothesis) ([]adapters.SuggestedHypothesis, error) {
	var sb strings.Builder
	sb.WriteString("Segment:\n")
	sb.WriteString(segmentText)
	sb.WriteString("\n\nExisting hypotheses:\n")
	for _, h := range existing {
		fmt.Fprintf(&sb, "- id=%s evidence_count=%d: %s\n", h.ID, h.EvidenceCount, h.HypothesisText)
	}

	raw, err := c.chat(ctx, suggestSystemPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var out []adapters.SuggestedHypothesis
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "EXISTING:"):
			rest := strings.TrimPrefix(line, "EXISTING:")
			parts := strings.SplitN(rest, ":", 2)
			if len(parts) != 2 {
				continue
			}
			id := strings.TrimSpace(parts[0])
			out = append(out, adapters.SuggestedHypothesis{
				HypothesisID:   &id,
				HypothesisText: strings.TrimSpace(parts[1]),
				Source:         "existing",
			})
		case strings.HasPrefix(line, "NEW:"):
			out = append(out, adapters.SuggestedHypothesis{
				HypothesisText: strings.TrimSpace(strings.TrimPrefix(line, "NEW:")),
				Source:         "generated",
			})
		}
	}
	return out, nil
}

const analyzeSystemPrompt = `You judge whether a segment of text confirms, refutes, nuances, or is irrelevant to a hypothesis. Begin your response with exactly one of **CONFIRMS**, **REFUTES**, **NUANCES**, or **IRRELEVANT**, followed by your reasoning.`

func (c *OpenAIClient) Analyze(ctx context.Context, segmentText, hypothesisText, description, referenceText string) (adapters.Verdict, string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hypothesis: %s\n", hypothesisText)
	if description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", description)
	}
	if referenceText != "" {
		fmt.Fprintf(&sb, "Reference text:\n%s\n", referenceText)
	}
	fmt.Fprintf(&sb, "Segment:\n%s\n", segmentText)

	raw, err := c.chat(ctx, analyzeSystemPrompt, sb.String())
	if err != nil {
		return "", "", err
	}

	verdict := parseVerdict(raw)
	return verdict, raw, nil
}

func parseVerdict(raw string) adapters.Verdict {
	upper := strings.ToUpper(raw)
	switch {
	case strings.Contains(upper, "**CONFIRMS**"):
		return adapters.VerdictConfirms
	case strings.Contains(upper, "**REFUTES**"):
		return adapters.VerdictRefutes
	case strings.Contains(upper, "**NUANCES**"):
		return adapters.VerdictNuances
	default:
		return adapters.VerdictIrrelevant
	}
}
