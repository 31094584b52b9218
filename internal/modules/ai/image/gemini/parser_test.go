package gemini

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reusedev/draw-studio/internal/modules/ai"
	"github.com/reusedev/draw-studio/internal/modules/ai/image"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const quotaBody = `{
  "error": {
    "code": 429,
    "message": "You exceeded your current quota.",
    "status": "RESOURCE_EXHAUSTED",
    "details": [
      {"@type": "type.googleapis.com/google.rpc.QuotaFailure", "violations": []},
      {"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "27s"}
    ]
  }
}`

func TestParseReplyImage(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte("img"))
	body := `{"candidates":[{"content":{"role":"model","parts":[{"text":"Here it is"},{"inlineData":{"mimeType":"image/png","data":"` + data + `"}}]},"finishReason":"STOP"}]}`
	reply, err := ParseReply([]byte(body))
	require.NoError(t, err)
	require.Len(t, reply.Images, 1)
	require.Equal(t, []byte("img"), reply.Images[0].Data)
	require.Equal(t, "image/png", reply.Images[0].MimeType)
	require.Equal(t, "Here it is", reply.Text)
	require.Equal(t, "STOP", reply.FinishReason)
	require.Equal(t, image.KindSuccess, image.Classify(reply, nil).Kind)
}

func TestParseReplyRefusals(t *testing.T) {
	reply, err := ParseReply([]byte(`{"candidates":[{"content":{"parts":[{"text":"I can't generate that."}]},"finishReason":"STOP"}]}`))
	require.NoError(t, err)
	require.Equal(t, image.KindRefusal, image.Classify(reply, nil).Kind)

	reply, err = ParseReply([]byte(`{"promptFeedback":{"blockReason":"PROHIBITED_CONTENT"}}`))
	require.NoError(t, err)
	require.Equal(t, "PROHIBITED_CONTENT", reply.BlockReason)
	require.Equal(t, image.KindRefusal, image.Classify(reply, nil).Kind)

	reply, err = ParseReply([]byte(`{"candidates":[{"content":{},"finishReason":"IMAGE_SAFETY"}]}`))
	require.NoError(t, err)
	require.Equal(t, image.KindRefusal, image.Classify(reply, nil).Kind)
}

func TestParseReplyMalformed(t *testing.T) {
	_, err := ParseReply([]byte(`<html>`))
	require.ErrorIs(t, err, image.ErrMalformedReply)

	_, err = ParseReply([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"data":"%%%"}}]}}]}`))
	require.ErrorIs(t, err, image.ErrMalformedReply)
	require.Equal(t, image.KindTransient, image.Classify(nil, err).Kind)

	reply, err := ParseReply([]byte(`{}`))
	require.NoError(t, err)
	require.Equal(t, image.KindTransient, image.Classify(reply, nil).Kind)
}

func TestParseError(t *testing.T) {
	e := ParseError(http.StatusTooManyRequests, http.Header{}, []byte(quotaBody))
	require.Equal(t, "RESOURCE_EXHAUSTED", e.Status)
	require.Equal(t, "You exceeded your current quota.", e.Message)
	require.Equal(t, 27*time.Second, e.RetryAfter)

	h := http.Header{}
	h.Set("Retry-After", "5")
	e = ParseError(http.StatusServiceUnavailable, h, []byte("upstream connect error"))
	require.Equal(t, "upstream connect error", e.Message)
	require.Equal(t, 5*time.Second, e.RetryAfter)

	e = ParseError(http.StatusBadGateway, http.Header{}, nil)
	require.Equal(t, "Bad Gateway", e.Message)
	require.Zero(t, e.RetryAfter)
}

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, 3*time.Second, parseRetryAfter(" 3 "))
	require.Zero(t, parseRetryAfter("-1"))
	require.Zero(t, parseRetryAfter("soon"))
	at := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	d := parseRetryAfter(at)
	require.Greater(t, d, 50*time.Second)
	require.LessOrEqual(t, d, time.Minute)
}

func TestClientGenerate(t *testing.T) {
	var gotKey, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		if gotKey == "exhausted-key" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(quotaBody))
			return
		}
		data := base64.StdEncoding.EncodeToString([]byte("result"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/jpeg","data":"` + data + `"}}]}}]}`))
	}))
	defer srv.Close()

	c := New("gemini-2.5-flash-image", WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	payload, err := image.NewPayload("make it pop",
		image.Image{Data: []byte("logo"), MimeType: "image/png", Role: image.RoleLogo},
		image.Image{Data: []byte("shoe"), MimeType: "image/jpeg", Role: image.RoleProduct},
	)
	require.NoError(t, err)

	reply, err := c.Generate(context.Background(), ai.Token{Token: "good-key"}, payload)
	require.NoError(t, err)
	require.Equal(t, "good-key", gotKey)
	require.Equal(t, "/v1beta/models/gemini-2.5-flash-image:generateContent", gotPath)
	require.Equal(t, []byte("result"), reply.Images[0].Data)

	parts := gjson.GetBytes(gotBody, "contents.0.parts").Array()
	require.Len(t, parts, 3)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("shoe")), parts[0].Get("inlineData.data").String())
	require.Equal(t, "image/png", parts[1].Get("inlineData.mimeType").String())
	require.Equal(t, "make it pop", parts[2].Get("text").String())

	_, err = c.Generate(context.Background(), ai.Token{Token: "exhausted-key"}, payload)
	c2 := image.Classify(nil, err)
	require.Equal(t, image.KindQuotaExceeded, c2.Kind)
	require.Equal(t, 27*time.Second, c2.RetryAfter)
}

func TestClientNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New("m", WithBaseURL(url))
	payload, err := image.NewPayload("x")
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), ai.Token{Token: "k"}, payload)
	require.Error(t, err)
	require.Equal(t, image.KindTransient, image.Classify(nil, err).Kind)
}
