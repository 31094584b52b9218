package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrMalformedReply marks a 2xx body that could not be decoded.
var ErrMalformedReply = errors.New("malformed reply")

const refusalPreviewLen = 150

// Classification is the verdict on one attempt.
type Classification struct {
	Kind       Kind
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Image      *Part
}

var (
	safetyFinishReasons = map[string]struct{}{
		"SAFETY":                   {},
		"IMAGE_SAFETY":             {},
		"PROHIBITED_CONTENT":       {},
		"IMAGE_PROHIBITED_CONTENT": {},
		"BLOCKLIST":                {},
		"SPII":                     {},
		"RECITATION":               {},
		"IMAGE_RECITATION":         {},
	}
	transientStatuses = map[string]struct{}{
		"UNAVAILABLE":       {},
		"INTERNAL":          {},
		"DEADLINE_EXCEEDED": {},
		"ABORTED":           {},
	}
)

// Classify maps the result of one remote call to exactly one Kind.
func Classify(reply *Reply, err error) Classification {
	if err != nil {
		return classifyError(err)
	}
	if reply == nil {
		return Classification{Kind: KindTransient, Message: "empty reply"}
	}
	for i := range reply.Images {
		if len(reply.Images[i].Data) > 0 {
			img := reply.Images[i]
			return Classification{Kind: KindSuccess, StatusCode: http.StatusOK, Image: &img}
		}
	}
	if reply.BlockReason != "" {
		msg := "prompt blocked: " + reply.BlockReason
		if reply.Text != "" {
			msg += ": " + truncate(reply.Text, refusalPreviewLen)
		}
		return Classification{Kind: KindRefusal, StatusCode: http.StatusOK, Message: msg}
	}
	if text := strings.TrimSpace(reply.Text); text != "" {
		return Classification{Kind: KindRefusal, StatusCode: http.StatusOK, Message: "refused: " + truncate(text, refusalPreviewLen)}
	}
	if _, ok := safetyFinishReasons[reply.FinishReason]; ok {
		return Classification{Kind: KindRefusal, StatusCode: http.StatusOK, Message: "finished with " + reply.FinishReason}
	}
	msg := "no image data returned"
	if reply.FinishReason != "" {
		msg += " (finish reason " + reply.FinishReason + ")"
	}
	return Classification{Kind: KindTransient, StatusCode: http.StatusOK, Message: msg}
}

func classifyError(err error) Classification {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}
	c := Classification{Kind: KindFatal, Message: err.Error()}
	var netErr net.Error
	switch {
	case errors.Is(err, ErrMalformedReply):
		c.Kind = KindTransient
		c.StatusCode = http.StatusOK
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.Kind = KindTransient
	case errors.As(err, &netErr):
		c.Kind = KindTransient
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.Kind = KindTransient
	}
	return c
}

func classifyAPIError(e *APIError) Classification {
	c := Classification{StatusCode: e.StatusCode, Message: e.Error(), RetryAfter: e.RetryAfter}
	_, transientStatus := transientStatuses[e.Status]
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.Status == "RESOURCE_EXHAUSTED":
		c.Kind = KindQuotaExceeded
	case e.StatusCode >= 500, e.StatusCode == http.StatusRequestTimeout, transientStatus:
		c.Kind = KindTransient
	default:
		c.Kind = KindFatal
	}
	return c
}

// truncate cuts s to at most n runes and marks the cut with "...".
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return fmt.Sprintf("%s...", string(r[:n]))
}
