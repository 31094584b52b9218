package image

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		reply *Reply
		err   error
		want  Kind
	}{
		{"image", imageReply(), nil, KindSuccess},
		{"image beside text", &Reply{Text: "here you go", Images: []Part{{Data: []byte{1}}}}, nil, KindSuccess},
		{"text only", &Reply{Text: "I can't help with that"}, nil, KindRefusal},
		{"blocked prompt", &Reply{BlockReason: "SAFETY"}, nil, KindRefusal},
		{"safety finish", &Reply{FinishReason: "IMAGE_SAFETY"}, nil, KindRefusal},
		{"empty candidates", &Reply{}, nil, KindTransient},
		{"stop without image", &Reply{FinishReason: "STOP"}, nil, KindTransient},
		{"nil reply", nil, nil, KindTransient},
		{"429", nil, &APIError{StatusCode: 429}, KindQuotaExceeded},
		{"resource exhausted", nil, &APIError{StatusCode: 400, Status: "RESOURCE_EXHAUSTED"}, KindQuotaExceeded},
		{"500", nil, &APIError{StatusCode: 500}, KindTransient},
		{"503", nil, &APIError{StatusCode: 503, Status: "UNAVAILABLE"}, KindTransient},
		{"408", nil, &APIError{StatusCode: 408}, KindTransient},
		{"400", nil, &APIError{StatusCode: 400, Status: "INVALID_ARGUMENT"}, KindFatal},
		{"401", nil, &APIError{StatusCode: 401}, KindFatal},
		{"403", nil, &APIError{StatusCode: 403, Status: "PERMISSION_DENIED"}, KindFatal},
		{"404", nil, &APIError{StatusCode: 404}, KindFatal},
		{"400 policy prose", nil, &APIError{StatusCode: 400, Message: "The prompt violates our policies."}, KindFatal},
		{"wrapped 429", nil, fmt.Errorf("call: %w", &APIError{StatusCode: 429}), KindQuotaExceeded},
		{"malformed body", nil, fmt.Errorf("decode: %w", ErrMalformedReply), KindTransient},
		{"deadline", nil, context.DeadlineExceeded, KindTransient},
		{"network", nil, &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: fmt.Errorf("refused")}}, KindTransient},
		{"eof", nil, io.ErrUnexpectedEOF, KindTransient},
		{"unknown", nil, fmt.Errorf("boom"), KindFatal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.reply, c.err)
			require.Equal(t, c.want, got.Kind)
			if got.Kind != KindSuccess {
				require.NotEmpty(t, got.Message)
			}
		})
	}
}

func TestClassifyRefusalTruncated(t *testing.T) {
	text := strings.Repeat("é", 200)
	c := Classify(&Reply{Text: text}, nil)
	require.Equal(t, KindRefusal, c.Kind)
	require.Equal(t, "refused: "+strings.Repeat("é", 150)+"...", c.Message)

	c = Classify(&Reply{Text: "short"}, nil)
	require.Equal(t, "refused: short", c.Message)
}

func TestClassifyKeepsRetryAfter(t *testing.T) {
	c := Classify(nil, &APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second})
	require.Equal(t, KindQuotaExceeded, c.Kind)
	require.Equal(t, 3*time.Second, c.RetryAfter)
	require.Equal(t, http.StatusTooManyRequests, c.StatusCode)
}

func TestRetryable(t *testing.T) {
	require.True(t, KindQuotaExceeded.Retryable())
	require.True(t, KindTransient.Retryable())
	for _, k := range []Kind{KindSuccess, KindRefusal, KindFatal, KindConfiguration} {
		require.False(t, k.Retryable(), k.String())
	}
}
