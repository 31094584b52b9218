package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/reusedev/draw-studio/internal/consts"
	"github.com/reusedev/draw-studio/internal/modules/ai"
	"github.com/reusedev/draw-studio/internal/modules/logs"
	"github.com/reusedev/draw-studio/internal/modules/observer"
)

// AttemptEvent is published after every remote call.
type AttemptEvent struct {
	DispatchID string
	Model      string
	Attempt    Attempt
}

// OutcomeEvent is published once per dispatch.
type OutcomeEvent struct {
	Model   string
	Outcome Outcome
}

// Dispatcher sends one payload to the remote service, rotating through the
// credential pool until an image comes back or a terminal failure occurs.
// Each credential is tried at most once per dispatch.
type Dispatcher struct {
	source         ai.Source
	generator      Generator
	policy         RetryPolicy
	sleep          Sleeper
	intn           ai.Intn
	attemptTimeout time.Duration
	model          string
	observers      observer.Observers
}

type Option func(*Dispatcher)

func WithPolicy(p RetryPolicy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

func WithSleeper(s Sleeper) Option {
	return func(d *Dispatcher) { d.sleep = s }
}

func WithIntn(intn ai.Intn) Option {
	return func(d *Dispatcher) { d.intn = intn }
}

func WithAttemptTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.attemptTimeout = timeout }
}

func WithModel(model string) Option {
	return func(d *Dispatcher) { d.model = model }
}

func WithObservers(o ...observer.Observer) Option {
	return func(d *Dispatcher) { d.observers = append(d.observers, o...) }
}

func NewDispatcher(source ai.Source, generator Generator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source:    source,
		generator: generator,
		policy:    DefaultRetryPolicy(),
		sleep:     Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Dispatch(ctx context.Context, payload Payload) Outcome {
	out := Outcome{ID: uuid.NewString()}
	defer func() {
		d.observers.Notify(consts.EventOutcome, OutcomeEvent{Model: d.model, Outcome: out})
	}()

	if err := payload.Validate(); err != nil {
		out.Failure = &Failure{Kind: KindFatal, Message: err.Error(), Err: err}
		logs.Logger.Warn().Str("dispatch_id", out.ID).Err(err).Msg("invalid payload")
		return out
	}
	tokens, err := ai.LoadPool(d.source)
	if err != nil {
		out.Failure = &Failure{Kind: KindConfiguration, Message: err.Error(), Err: err}
		logs.Logger.Error().Str("dispatch_id", out.ID).Err(err).Msg("credential pool empty")
		return out
	}
	order := ai.Shuffle(tokens, d.intn)
	quota := d.policy.quotaBackOff()

	var (
		last    Classification
		lastTok ai.Token
		lastErr error
	)
	for i, token := range order {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		reply, err := d.generate(ctx, token, payload)
		c := Classify(reply, err)
		attempt := Attempt{
			Index:      i + 1,
			Credential: token.Suffix(),
			Kind:       c.Kind,
			StatusCode: c.StatusCode,
			Message:    c.Message,
			Duration:   time.Since(start),
		}
		if c.Kind == KindSuccess {
			out.Result = &Result{Data: c.Image.Data, MimeType: c.Image.MimeType}
			if out.Result.MimeType == "" {
				out.Result.MimeType = defaultMimeType
			}
			d.record(&out, attempt)
			return out
		}
		last, lastTok = c, token
		lastErr = err
		if lastErr == nil {
			lastErr = errors.New(c.Message)
		}
		terminal := !c.Kind.Retryable() || i == len(order)-1 || ctx.Err() != nil
		if !terminal {
			attempt.Delay = d.policy.delay(c, quota)
		}
		d.record(&out, attempt)
		if terminal {
			break
		}
		if err := d.sleep(ctx, attempt.Delay); err != nil {
			break
		}
	}

	if len(out.Attempts) == 0 {
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out.Failure = &Failure{Kind: KindTransient, Message: err.Error(), Err: err}
		return out
	}
	out.Failure = &Failure{
		Kind:       last.Kind,
		Message:    last.Message,
		Credential: lastTok.Suffix(),
		Err:        lastErr,
	}
	if err := ctx.Err(); err != nil && last.Kind.Retryable() {
		out.Failure.Err = fmt.Errorf("%w: %w", err, lastErr)
	}
	logs.Logger.Warn().
		Str("dispatch_id", out.ID).
		Str("model", d.model).
		Str("kind", last.Kind.String()).
		Int("attempts", len(out.Attempts)).
		Int("pool_size", len(order)).
		Str("credential", lastTok.Suffix()).
		Msg(last.Message)
	return out
}

func (d *Dispatcher) generate(ctx context.Context, token ai.Token, payload Payload) (*Reply, error) {
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.attemptTimeout)
		defer cancel()
	}
	return d.generator.Generate(ctx, token, payload)
}

func (d *Dispatcher) record(out *Outcome, attempt Attempt) {
	out.Attempts = append(out.Attempts, attempt)
	event := logs.Logger.Info()
	if attempt.Kind != KindSuccess {
		event = logs.Logger.Warn().Str("message", attempt.Message)
	}
	event.Str("dispatch_id", out.ID).
		Str("model", d.model).
		Int("attempt", attempt.Index).
		Str("credential", attempt.Credential).
		Str("kind", attempt.Kind.String()).
		Int("status_code", attempt.StatusCode).
		Int64("req_consume_ms", attempt.Duration.Milliseconds()).
		Dur("delay", attempt.Delay).
		Msg("dispatch attempt")
	d.observers.Notify(consts.EventAttempt, AttemptEvent{DispatchID: out.ID, Model: d.model, Attempt: attempt})
}
