package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaClient completes prompts against a local Ollama instance.
type OllamaClient struct {
	client *ollama.Client
	model  string
}

func NewOllamaClient(host, model string) (*OllamaClient, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	return &OllamaClient{
		client: ollama.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (c *OllamaClient) Name() string { return "ollama" }

func (c *OllamaClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var text strings.Builder
	req := &ollama.GenerateRequest{
		Model:  c.model,
		System: systemPrompt,
		Prompt: userPrompt,
	}
	err := c.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return text.String(), nil
}
