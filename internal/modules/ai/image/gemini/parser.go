package gemini

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/tidwall/gjson"
)

const errorBodyPreviewLen = 512

// ParseReply decodes a 2xx generateContent body.
func ParseReply(body []byte) (*image.Reply, error) {
	var resp GenerateResponse
	if err := jsoniter.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", image.ErrMalformedReply, err)
	}
	ret := &image.Reply{}
	if resp.PromptFeedback != nil {
		ret.BlockReason = resp.PromptFeedback.BlockReason
		if ret.BlockReason != "" && resp.PromptFeedback.BlockReasonMessage != "" {
			ret.Text = resp.PromptFeedback.BlockReasonMessage
		}
	}
	var texts []string
	for i, c := range resp.Candidates {
		if i == 0 {
			ret.FinishReason = c.FinishReason
		}
		for _, p := range c.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("%w: inline data: %v", image.ErrMalformedReply, err)
				}
				ret.Images = append(ret.Images, image.Part{Data: data, MimeType: p.InlineData.MimeType})
				continue
			}
			if t := strings.TrimSpace(p.Text); t != "" {
				texts = append(texts, t)
			}
		}
	}
	if len(texts) > 0 {
		ret.Text = strings.Join(texts, "\n")
	}
	return ret, nil
}

// ParseError builds an APIError from a non-2xx answer. The body is the
// google.rpc.Status envelope when the service produced it, anything otherwise.
func ParseError(statusCode int, header http.Header, body []byte) *image.APIError {
	ret := &image.APIError{StatusCode: statusCode}
	if gjson.ValidBytes(body) {
		e := gjson.GetBytes(body, "error")
		ret.Status = e.Get("status").String()
		ret.Message = e.Get("message").String()
		for _, d := range e.Get("details").Array() {
			if rd := d.Get("retryDelay"); rd.Exists() {
				if v, err := time.ParseDuration(rd.String()); err == nil {
					ret.RetryAfter = v
				}
			}
		}
	}
	if ret.Message == "" {
		ret.Message = strings.TrimSpace(string(body))
		if len(ret.Message) > errorBodyPreviewLen {
			ret.Message = ret.Message[:errorBodyPreviewLen]
		}
	}
	if ret.Message == "" {
		ret.Message = http.StatusText(statusCode)
	}
	if ret.RetryAfter == 0 {
		ret.RetryAfter = parseRetryAfter(header.Get("Retry-After"))
	}
	return ret
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
