// Package vision is the low-level client for the multimodal model that backs
// identity verification and audit analysis. It only knows how to send a
// prompt with inline images and return the model's text; callers interpret
// the text.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"timeclock/internal/platform/config"
)

// Part is one element of a multimodal prompt: either text or an inline image.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries a base64-encoded image.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// TextPart builds a text prompt part.
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart builds an inline image prompt part.
func ImagePart(mimeType, base64Data string) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: base64Data}}
}

// Client talks to a Gemini-compatible generateContent endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// New builds a vision client. Returns nil when no endpoint is configured;
// callers treat a nil client as a technical failure.
func New(cfg config.VisionConfig) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type genConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends the parts and returns the model's JSON text response.
// The model is asked for application/json; the returned string is trimmed to
// the outermost braces to survive models that wrap JSON in prose.
func (c *Client) GenerateJSON(ctx context.Context, parts []Part) (string, error) {
	if c == nil {
		return "", fmt.Errorf("vision client not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: parts}},
		Config:   genConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal vision request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision call: unexpected status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("vision response has no candidates")
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	return trimToJSON(text)
}

// trimToJSON extracts the outermost JSON object from a text blob.
func trimToJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in vision response")
	}
	return text[start : end+1], nil
}
