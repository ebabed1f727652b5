// Package ai talks to the chat-completion service behind VibeBot, the
// community's AI persona. One request, one reply, no streaming.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Completer produces a single completion for a prompt. Failures are treated
// upstream as a no-reply case, never an error dialog.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// persona is VibeBot's system prompt.
const persona = "You are VibeBot, the AI mascot of the Vibe Your Mind community. " +
	"Reply in a short, witty, geeky (cyberpunk / vibe-coding) tone. " +
	"Keep replies under 50 words. No long lectures."

// notConfiguredReply is returned when no API key is set, so the channel
// still answers instead of erroring.
const notConfiguredReply = "AI service is not configured. Ping an admin to set it up."

// VibeBot is a DeepSeek-compatible chat-completion client.
type VibeBot struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewVibeBot creates a completion client. apiKey may be empty, in which case
// every completion degrades to a canned reply.
func NewVibeBot(apiURL, apiKey, model string) *VibeBot {
	return &VibeBot{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt under the VibeBot persona and returns the first
// choice's text.
func (b *VibeBot) Complete(ctx context.Context, prompt string) (string, error) {
	if b.apiKey == "" {
		return notConfiguredReply, nil
	}

	reqBody := completionRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: persona},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion API returned no reply")
	}

	return parsed.Choices[0].Message.Content, nil
}
