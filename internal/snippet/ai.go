// internal/snippet/ai.go
package snippet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/e-moran/debugduel/internal/common"
)

const defaultCompletionURL = "https://ai-provider.aks-hs-dev.int.hyperskill.org/chat-completion"

const systemPrompt = `You write short code snippets for a debugging game.
Produce a snippet of 8 to 12 lines containing exactly three buggy lines.
Respond with a single JSON object and nothing else, in the form
{"code": "<the snippet>", "bug_lines": [<three 1-based line numbers>]}.`

const userPrompt = `Generate a new buggy snippet.`

// AIProvider asks a chat-completion endpoint to invent a buggy snippet and
// parses the answer key out of the response content.
type AIProvider struct {
	URL    string
	APIKey string
	Model  string

	Client *http.Client
	Logger *logrus.Logger
}

// NewAIProviderFromEnv builds a provider from AI_API_KEY, AI_MODEL and
// optionally AI_PROVIDER_URL.
func NewAIProviderFromEnv(logger *logrus.Logger) *AIProvider {
	url := os.Getenv("AI_PROVIDER_URL")
	if url == "" {
		url = defaultCompletionURL
	}
	return &AIProvider{
		URL:    url,
		APIKey: os.Getenv("AI_API_KEY"),
		Model:  os.Getenv("AI_MODEL"),
		Client: &http.Client{Timeout: 30 * time.Second},
		Logger: logger,
	}
}

type completionRequest struct {
	Messages []completionMessage `json:"messages"`
	Model    string              `json:"model"`
	System   string              `json:"system,omitempty"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Content string `json:"content"`
}

func (p *AIProvider) Generate(ctx context.Context) (Snippet, error) {
	payload, err := json.Marshal(completionRequest{
		Messages: []completionMessage{{Role: "user", Content: userPrompt}},
		Model:    p.Model,
		System:   systemPrompt,
	})
	if err != nil {
		return Snippet{}, fmt.Errorf("%w: encode request: %v", common.ErrSnippetUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return Snippet{}, fmt.Errorf("%w: build request: %v", common.ErrSnippetUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return Snippet{}, fmt.Errorf("%w: %v", common.ErrSnippetUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Snippet{}, fmt.Errorf("%w: read response: %v", common.ErrSnippetUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Snippet{}, fmt.Errorf("%w: completion status %d", common.ErrSnippetUnavailable, resp.StatusCode)
	}

	var cr completionResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Snippet{}, fmt.Errorf("%w: decode response: %v", common.ErrSnippetUnavailable, err)
	}

	var s Snippet
	if err := json.Unmarshal([]byte(cr.Content), &s); err != nil {
		if p.Logger != nil {
			p.Logger.WithField("content", cr.Content).Warn("malformed snippet content from provider")
		}
		return Snippet{}, fmt.Errorf("%w: malformed content: %v", common.ErrSnippetUnavailable, err)
	}
	sort.Ints(s.BugLines)
	if err := Validate(s); err != nil {
		return Snippet{}, err
	}
	return s, nil
}
