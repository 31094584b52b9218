package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reusedev/draw-studio/config"
	"github.com/reusedev/draw-studio/internal/modules/ai"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"google.golang.org/genai"
)

// Client generates through the official genai SDK. A fresh SDK client is built
// per attempt because the key differs between attempts.
type Client struct {
	model      string
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithAPIVersion(version string) Option {
	return func(c *Client) { c.apiVersion = version }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(model string, opts ...Option) *Client {
	c := &Client{model: model}
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

func (c *Client) Generate(ctx context.Context, token ai.Token, payload image.Payload) (*image.Reply, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     token.Token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	})
	if err != nil {
		return nil, err
	}
	resp, err := client.Models.GenerateContent(ctx, c.model, Contents(payload), nil)
	if err != nil {
		return nil, convertError(err)
	}
	return ToReply(resp), nil
}

// Contents maps the payload to a single user turn.
func Contents(payload image.Payload) []*genai.Content {
	parts := make([]*genai.Part, 0, len(payload.Images)+1)
	for _, p := range payload.Parts() {
		if p.IsText() {
			parts = append(parts, genai.NewPartFromText(p.Text))
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(p.Data, p.MimeType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func ToReply(resp *genai.GenerateContentResponse) *image.Reply {
	ret := &image.Reply{}
	if resp == nil {
		return ret
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		ret.BlockReason = string(fb.BlockReason)
		ret.Text = fb.BlockReasonMessage
	}
	var texts []string
	for i, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		if i == 0 {
			ret.FinishReason = string(cand.FinishReason)
		}
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				ret.Images = append(ret.Images, image.Part{Data: p.InlineData.Data, MimeType: p.InlineData.MIMEType})
				continue
			}
			if t := strings.TrimSpace(p.Text); t != "" && !p.Thought {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) > 0 {
		ret.Text = strings.Join(texts, "\n")
	}
	return ret
}

// convertError turns SDK errors into the shapes image.Classify understands.
func convertError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fromAPIError(*apiErrPtr)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", image.ErrMalformedReply, err)
	}
	return err
}

func fromAPIError(e genai.APIError) *image.APIError {
	ret := &image.APIError{StatusCode: e.Code, Status: e.Status, Message: e.Message}
	for _, d := range e.Details {
		v, ok := d["retryDelay"].(string)
		if !ok {
			continue
		}
		if delay, err := time.ParseDuration(v); err == nil {
			ret.RetryAfter = delay
		}
	}
	if ret.Message == "" {
		ret.Message = http.StatusText(e.Code)
	}
	return ret
}
