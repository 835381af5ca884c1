package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	"google.golang.org/api/option/internaloption"
	htransport "google.golang.org/api/transport/http"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	defaultEndpoint = "https://generativelanguage.googleapis.com/"
	maxReplyBytes   = 1 << 20
)

// Wire shapes of the generateContent REST call. Only the fields we send or
// read are declared.
type (
	geminiPart struct {
		Text string `json:"text,omitempty"`
	}

	geminiContent struct {
		Role  string       `json:"role,omitempty"`
		Parts []geminiPart `json:"parts"`
	}

	geminiGenerationConfig struct {
		ResponseMimeType string `json:"responseMimeType,omitempty"`
	}

	geminiRequest struct {
		Contents         []geminiContent         `json:"contents"`
		GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
	}

	geminiCandidate struct {
		Content *geminiContent `json:"content"`
	}

	geminiResponse struct {
		Candidates []geminiCandidate `json:"candidates"`
	}
)

// Gemini is a Completer backed by the Generative Language REST API.
type Gemini struct {
	client   *http.Client
	endpoint string
	model    string
}

var _ Completer = (*Gemini)(nil)

// NewGemini creates a client authenticated with an API key. Extra options
// are appended after the key (tests point the endpoint at a fake server).
func NewGemini(ctx context.Context, apiKey, model string, opts ...goption.ClientOption) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if model == "" {
		model = DefaultModel
	}
	model = strings.TrimPrefix(model, "models/")

	all := append([]goption.ClientOption{
		internaloption.WithDefaultEndpoint(defaultEndpoint),
		goption.WithAPIKey(apiKey),
	}, opts...)
	client, endpoint, err := htransport.NewClient(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create generative language client: %w", err)
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	slog.InfoContext(ctx, "Gemini client created", "model", model)
	return &Gemini{client: client, endpoint: endpoint, model: model}, nil
}

func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: p.Text}}}},
	}
	if p.JSON {
		body.GenerationConfig = &geminiGenerationConfig{ResponseMimeType: "application/json"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	target := g.endpoint + "v1beta/models/" + url.PathEscape(g.model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var out geminiResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxReplyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return responseText(out), nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}
