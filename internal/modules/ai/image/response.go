package image

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindSuccess       Kind = "success"
	KindConfiguration Kind = "configuration_error"
	KindRefusal       Kind = "refusal"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindTransient     Kind = "transient"
	KindFatal         Kind = "fatal"
)

func (k Kind) String() string {
	return string(k)
}

// Retryable reports whether the next credential may succeed where this one failed.
func (k Kind) Retryable() bool {
	return k == KindQuotaExceeded || k == KindTransient
}

// APIError is a non-2xx answer from the remote service.
type APIError struct {
	StatusCode int
	Status     string // provider status, e.g. RESOURCE_EXHAUSTED
	Message    string
	RetryAfter time.Duration // provider suggested wait, 0 if none
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API %d: %s", e.StatusCode, e.Message)
}

type Result struct {
	Data     []byte
	MimeType string
}

func (r Result) DataURI() string {
	return EncodeDataURI(r.MimeType, r.Data)
}

type Attempt struct {
	Index      int
	Credential string // redacted
	Kind       Kind
	StatusCode int
	Message    string
	Duration   time.Duration
	Delay      time.Duration // wait applied before the next attempt
}

// Failure is the terminal error of a dispatch.
type Failure struct {
	Kind       Kind
	Message    string
	Credential string // redacted, empty when no attempt was made
	Err        error
}

func (f *Failure) Error() string {
	if f.Credential == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s (key %s)", f.Kind, f.Message, f.Credential)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome is the single result of a dispatch: exactly one of Result and
// Failure is set.
type Outcome struct {
	ID       string
	Result   *Result
	Failure  *Failure
	Attempts []Attempt
}

func (o Outcome) Succeed() bool {
	return o.Result != nil
}

func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}
