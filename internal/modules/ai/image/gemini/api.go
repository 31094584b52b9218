package gemini

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/reusedev/draw-studio/internal/modules/http_client"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/tools"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
)

// Client calls models/{model}:generateContent over plain HTTP.
type Client struct {
	client     *http_client.HttpClient
	baseURL    string
	apiVersion string
	model      string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = http_client.NewWithClient(c) }
}

func WithBaseURL(baseURL string) Option {
	return func(cl *Client) { cl.baseURL = baseURL }
}

func WithAPIVersion(version string) Option {
	return func(cl *Client) { cl.apiVersion = version }
}

func New(model string, opts ...Option) *Client {
	c := &Client{
		client:     http_client.NewWithTimeout(3 * time.Minute),
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		model:      model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewFromConfig(c config.Gemini) *Client {
	return New(c.Model,
		WithBaseURL(c.BaseURL),
		WithAPIVersion(c.APIVersion),
		WithHTTPClient(&http.Client{Timeout: c.Timeout}),
	)
}

func (c *Client) URL() string {
	return tools.FullURL(c.baseURL, c.apiVersion, "models/"+c.model+":generateContent")
}

func (c *Client) Generate(ctx context.Context, token ai.Token, payload image.Payload) (*image.Reply, error) {
	req, err := c.client.NewRequest(
		http.MethodPost,
		c.URL(),
		http_client.WithHeader("x-goog-api-key", token.Token),
		http_client.WithHeader("Content-Type", "application/json"),
		http_client.WithBody(NewGenerateRequest(payload)),
		http_client.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	reqAt := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	logs.Logger.Debug().
		Str("credential", token.Suffix()).
		Str("model", c.model).
		Str("method", req.Method).
		Int("status_code", resp.StatusCode).
		Int("body_bytes", len(body)).
		Int64("req_consume_ms", time.Since(reqAt).Milliseconds()).
		Msg("gemini request")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ParseError(resp.StatusCode, resp.Header, body)
	}
	return ParseReply(body)
}

func NewGenerateRequest(payload image.Payload) GenerateRequest {
	parts := make([]part, 0, len(payload.Images)+1)
	for _, p := range payload.Parts() {
		if p.IsText() {
			parts = append(parts, part{Text: p.Text})
			continue
		}
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: p.MimeType,
			Data:     base64.StdEncoding.EncodeToString(p.Data),
		}})
	}
	return GenerateRequest{Contents: []content{{Role: "user", Parts: parts}}}
}
