package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin Generator over the official genai client.
// It owns only the API call itself; retries and backoff belong to the
// caller, per the gateway contract.
type GeminiClient struct {
	cli *genai.Client
}

// NewGeminiClient creates a Gemini-backed Generator. The API key comes
// from the environment (GEMINI_API_KEY) when empty.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: creating gemini client: %w", err)
	}
	return &GeminiClient{cli: cli}, nil
}

// Generate performs the single completion call and classifies any
// failure into the closed error taxonomy.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Kind: KindTransient, Err: errors.New("empty response")}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// classify maps provider errors onto the gateway taxonomy: deadline
// expiry is a timeout, 4xx request/auth problems are fatal, everything
// else (429, 5xx, network) is transient.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &Error{Kind: KindTransient, Err: err}
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return &Error{Kind: KindFatal, Err: err}
		}
	}
	return &Error{Kind: KindTransient, Err: err}
}
