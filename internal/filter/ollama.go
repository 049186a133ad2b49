// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOllamaHost is the local Ollama server.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaBackend calls a local Ollama server's chat endpoint.
type OllamaBackend struct {
	Host   string
	Model  string
	Client *http.Client
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
}

// Complete implements Backend.
func (b *OllamaBackend) Complete(ctx context.Context, system, user string) (string, error) {
	host := b.Host
	if host == "" {
		host = DefaultOllamaHost
	}
	body, err := json.Marshal(ollamaRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(host, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out ollamaResponse
	if err := doJSON(ctx, b.Client, req, &out); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return out.Message.Content, nil
}
