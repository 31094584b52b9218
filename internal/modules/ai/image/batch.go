package image

import (
	"context"
	"time"

	"github.com/reusedev/draw-studio/config"
	"golang.org/x/sync/errgroup"
)

type Dispatch interface {
	Dispatch(ctx context.Context, payload Payload) Outcome
}

type BatchOptions struct {
	Strategy      string // config.BatchConcurrent or config.BatchSequential
	MaxConcurrent int
	Cooldown      time.Duration // sequential only, between slots
	Sleep         Sleeper
	// OnSlotDone is called as each slot finishes, possibly from several goroutines.
	OnSlotDone func(slot int, outcome Outcome)
}

func BatchOptionsFromConfig(c config.Batch) BatchOptions {
	return BatchOptions{
		Strategy:      c.Strategy,
		MaxConcurrent: c.MaxConcurrent,
		Cooldown:      c.Cooldown,
	}
}

// RunBatch dispatches every payload independently. A failed slot never cancels
// its siblings; the result has one outcome per payload in input order.
func RunBatch(ctx context.Context, d Dispatch, payloads []Payload, opts BatchOptions) []Outcome {
	outcomes := make([]Outcome, len(payloads))
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	done := func(i int, o Outcome) {
		outcomes[i] = o
		if opts.OnSlotDone != nil {
			opts.OnSlotDone(i, o)
		}
	}

	if opts.Strategy == config.BatchSequential {
		for i, p := range payloads {
			if i > 0 && opts.Cooldown > 0 {
				if err := opts.Sleep(ctx, opts.Cooldown); err != nil {
					// slots never started still get an outcome
					for j := i; j < len(payloads); j++ {
						done(j, Outcome{Failure: &Failure{Kind: KindTransient, Message: err.Error(), Err: err}})
					}
					break
				}
			}
			done(i, d.Dispatch(ctx, p))
		}
		return outcomes
	}

	var g errgroup.Group
	if opts.MaxConcurrent > 0 {
		g.SetLimit(opts.MaxConcurrent)
	}
	for i, p := range payloads {
		g.Go(func() error {
			done(i, d.Dispatch(ctx, p))
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
