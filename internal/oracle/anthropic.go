package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Ensure Anthropic implements Classifier.
var _ Classifier = (*Anthropic)(nil)

const anthropicVersion = "2023-06-01"

// Anthropic implements Classifier against the Anthropic messages API.
type Anthropic struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewAnthropic creates the HTTP-backed classifier.
func NewAnthropic(apiKey, model, baseURL string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle: API key is required")
	}
	if model == "" {
		model = "claude-3-haiku-20240307"
	}
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &Anthropic{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Anthropic) ClassifyDuplicate(ctx context.Context, name, description, corpusIndex string) (Decision, error) {
	prompt := fmt.Sprintf(`You maintain a Zettelkasten knowledge base. Decide whether the candidate concept below is already covered by an existing note.

Candidate concept: %s
Candidate description: %s

Existing concept index:
%s

Match ONLY when the candidate is clearly the same core idea as an existing entry, not merely a related topic. When uncertain, answer that it is not a duplicate.

Respond with JSON only:
{"is_duplicate": true|false, "matching_title": "<exact title from the index, or null>"}`,
		name, description, corpusIndex)

	text, err := a.complete(ctx, prompt, 256, 0)
	if err != nil {
		return Decision{}, err
	}
	var d Decision
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &d); err != nil {
		return Decision{}, fmt.Errorf("oracle: malformed classify response: %w", err)
	}
	return d, nil
}

func (a *Anthropic) Summarize(ctx context.Context, topic, contextText string) (string, error) {
	prompt := fmt.Sprintf(`Based on the following information, generate a concise description of the concept "%s".

%s

Generate a clear, actionable description (2-3 sentences) of what this concept is, suitable for a personal knowledge base.
Focus on how it relates to the topics in the referencing notes.

Return only the description text, no JSON or formatting.`,
		topic, contextText)

	text, err := a.complete(ctx, prompt, 512, 0.5)
	if err != nil {
		return "", err
	}
	return text, nil
}

// complete runs one synchronous round-trip to the messages endpoint.
func (a *Anthropic) complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(messageRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("oracle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("oracle: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oracle: read response: %w", err)
	}

	var mr messageResponse
	if err := json.Unmarshal(data, &mr); err != nil {
		return "", fmt.Errorf("oracle: decode response (status %d): %w", resp.StatusCode, err)
	}
	if mr.Error != nil {
		return "", fmt.Errorf("oracle: API error (%s): %s", mr.Error.Type, mr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle: API returned status %d", resp.StatusCode)
	}
	if len(mr.Content) == 0 {
		return "", fmt.Errorf("oracle: empty response content")
	}
	return mr.Content[0].Text, nil
}
