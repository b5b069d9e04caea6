package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sublingo/internal/batcher"
	"sublingo/internal/logging"
	"sublingo/internal/sanitize"
	"sublingo/internal/services"
	"sublingo/internal/validate"
)

// ErrBatchFailed marks a batch that exhausted primaries and every fallback round.
var ErrBatchFailed = errors.New("all translation attempts failed")

// State names the per-batch dispatch phases used in debug logs.
type State string

const (
	StateNotStarted     State = "not_started"
	StateTryingPrimary  State = "trying_primary"
	StateTryingFallback State = "trying_fallback"
	StateRetrying       State = "retrying"
	StateResolved       State = "resolved"
)

// Options tunes a Dispatcher.
type Options struct {
	// RetryRounds is the total number of fallback races per batch, the first
	// race included; values below 1 mean 1. With fallbacks configured a
	// failing batch makes 1 + RetryRounds attempts: one primary pass and
	// RetryRounds races.
	RetryRounds int
	// RetryDelay is the fixed pause between consecutive fallback races.
	RetryDelay time.Duration
	// RaceTimeout bounds each fallback race; zero means no bound.
	RaceTimeout time.Duration
	// StrictScript widens the residual source-script check.
	StrictScript bool
	// Normalize enables punctuation normalization on accepted replies.
	Normalize bool
	Prompt    Prompt
	Sink      Sink
	Observer  Observer
	Logger    *slog.Logger
}

// Dispatcher routes batches through the provider hierarchy.
type Dispatcher struct {
	primaries []*provider
	fallbacks []*provider
	opts      Options
	logger    *slog.Logger
}

// Result is the outcome of one batch. On failure Lines holds the batch's
// original lines.
type Result struct {
	Batch    batcher.Batch
	Success  bool
	Lines    []string
	Err      error
	Provider string
	Attempts int
	Duration time.Duration
}

// New builds a dispatcher. At least one primary provider is required and
// provider names must be unique.
func New(primaries, fallbacks []Provider, opts Options) (*Dispatcher, error) {
	if len(primaries) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", "at least one primary provider is required", nil)
	}
	seen := make(map[string]struct{}, len(primaries)+len(fallbacks))
	build := func(list []Provider) ([]*provider, error) {
		out := make([]*provider, 0, len(list))
		for _, p := range list {
			if _, dup := seen[p.Name]; dup {
				return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", fmt.Sprintf("duplicate provider name %q", p.Name), nil)
			}
			seen[p.Name] = struct{}{}
			rt, err := newProvider(p)
			if err != nil {
				return nil, err
			}
			out = append(out, rt)
		}
		return out, nil
	}
	prim, err := build(primaries)
	if err != nil {
		return nil, err
	}
	fall, err := build(fallbacks)
	if err != nil {
		return nil, err
	}
	if opts.RetryRounds < 1 {
		opts.RetryRounds = 1
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	return &Dispatcher{
		primaries: prim,
		fallbacks: fall,
		opts:      opts,
		logger:    logging.NewComponentLogger(opts.Logger, "dispatch"),
	}, nil
}

// Run dispatches batches one at a time in order. It returns a non-nil error
// only when ctx is cancelled; the report then holds the batches resolved
// before cancellation.
func (d *Dispatcher) Run(ctx context.Context, batches []batcher.Batch) (Report, error) {
	report := Report{Stats: Stats{Started: time.Now(), ProviderUsage: map[string]int{}}}
	total := len(batches)
	d.logger.Info("dispatch run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.Int("batches", total),
		logging.Int("primary_providers", len(d.primaries)),
		logging.Int("fallback_providers", len(d.fallbacks)),
	)

	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return d.finish(report, err)
		}
		d.notify(Event{Phase: PhaseStarted, Completed: i, Total: total, Message: startedMessage(b.Range()), Range: b.Range()})
		if d.opts.Sink != nil {
			d.opts.Sink.MarkInProgress(b)
		}

		res := d.Dispatch(ctx, b)
		if !res.Success && ctx.Err() != nil {
			return d.finish(report, ctx.Err())
		}

		if d.opts.Sink != nil {
			d.opts.Sink.ApplyBatchResult(res.Batch, res.Lines, res.Success)
		}
		report.add(res)
		d.notify(Event{
			Phase:     PhaseResolved,
			Completed: i + 1,
			Total:     total,
			Message:   resolvedMessage(res),
			Range:     b.Range(),
			Success:   res.Success,
			Provider:  res.Provider,
			Result:    &res,
		})
	}
	return d.finish(report, nil)
}

func (d *Dispatcher) finish(report Report, err error) (Report, error) {
	report.Stats.Elapsed = time.Since(report.Stats.Started)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Int("total", report.Stats.Total),
		logging.Int("succeeded", report.Stats.Succeeded),
		logging.Int("failed", report.Stats.Failed),
		logging.Duration("elapsed", report.Stats.Elapsed),
	}
	if err != nil {
		d.logger.Warn("dispatch run cancelled", logging.Args(append(attrs,
			logging.String(logging.FieldErrorHint, "resume the project to dispatch the remaining lines"),
			logging.String(logging.FieldImpact, "unresolved batches stay pending or in progress"),
		)...)...)
		return report, err
	}
	d.logger.Info("dispatch run finished", logging.Args(attrs...)...)
	return report, nil
}

func (d *Dispatcher) notify(e Event) {
	if d.opts.Observer != nil {
		d.opts.Observer.Progress(e)
	}
}

// Dispatch resolves a single batch. The returned result's Batch carries the
// updated attempt count. When ctx is cancelled the result fails with the
// context error.
func (d *Dispatcher) Dispatch(ctx context.Context, b batcher.Batch) Result {
	started := time.Now()
	ctx = services.WithBatchRange(ctx, b.Start, b.End)
	logger := logging.WithContext(ctx, d.logger)

	failed := func(err error) Result {
		d.transition(logger, StateResolved, logging.Bool("success", false))
		return Result{
			Batch:    b,
			Lines:    append([]string(nil), b.Lines...),
			Err:      err,
			Attempts: b.Attempts,
			Duration: time.Since(started),
		}
	}
	succeeded := func(lines []string, name string) Result {
		d.transition(logger, StateResolved, logging.Bool("success", true), logging.String(logging.FieldProvider, name))
		return Result{
			Batch:    b,
			Success:  true,
			Lines:    lines,
			Provider: name,
			Attempts: b.Attempts,
			Duration: time.Since(started),
		}
	}

	d.transition(logger, StateNotStarted)
	systemPrompt := d.opts.Prompt.System()
	userPrompt, err := d.opts.Prompt.User(b)
	if err != nil {
		return failed(services.Wrap(services.ErrValidation, "dispatch", "prompt", "build user prompt", err))
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	var callErrs []error
	d.transition(logger, StateTryingPrimary)
	b.Attempts++
	for _, p := range d.primaries {
		if err := ctx.Err(); err != nil {
			return failed(err)
		}
		lines, err := d.attempt(ctx, p, b, systemPrompt, userPrompt)
		if err == nil {
			return succeeded(lines, p.Name)
		}
		callErrs = append(callErrs, fmt.Errorf("%s: %w", p.Name, err))
		if ctx.Err() != nil {
			return failed(ctx.Err())
		}
	}

	if len(d.fallbacks) > 0 {
		for round := 1; round <= d.opts.RetryRounds; round++ {
			if err := ctx.Err(); err != nil {
				return failed(err)
			}
			state := StateTryingFallback
			if round > 1 {
				state = StateRetrying
			}
			b.Attempts++
			d.transition(logger, state, logging.Int("round", round), logging.Int("attempts", b.Attempts))

			lines, name, err := d.race(ctx, b, systemPrompt, userPrompt)
			if err == nil {
				return succeeded(lines, name)
			}
			callErrs = append(callErrs, fmt.Errorf("round %d: %w", round, err))
			if ctx.Err() != nil {
				return failed(ctx.Err())
			}
			if round < d.opts.RetryRounds {
				if err := sleepCtx(ctx, d.opts.RetryDelay); err != nil {
					return failed(err)
				}
			}
		}
	}

	err = fmt.Errorf("%w: %w", ErrBatchFailed, errors.Join(callErrs...))
	logging.WarnWithContext(logger, "batch failed; original lines kept", "batch_failed",
		logging.Int("attempts", b.Attempts),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run resume later or edit the lines manually"),
		logging.String(logging.FieldImpact, "lines in this range are marked failed"),
	)
	return failed(err)
}

// attempt makes one guarded provider call and validates the reply.
func (d *Dispatcher) attempt(ctx context.Context, p *provider, b batcher.Batch, systemPrompt, userPrompt string) ([]string, error) {
	ctx = services.WithProvider(ctx, p.Name)
	started := time.Now()
	raw, err := p.complete(ctx, systemPrompt, userPrompt)
	if err == nil {
		outcome := validate.Validate(raw, len(b.Lines), d.opts.StrictScript)
		if !outcome.OK {
			err = outcome.Reason
		} else {
			lines := sanitize.ProcessBatch(outcome.Lines, d.opts.Prompt.NameMap, d.opts.Normalize)
			logging.WithContext(ctx, d.logger).Debug("provider call succeeded",
				logging.Duration("duration", time.Since(started)))
			return lines, nil
		}
	}
	logging.LogCallFailure(ctx, d.logger, "provider call failed", err, logging.Duration("duration", time.Since(started)))
	return nil, err
}

type raceOutcome struct {
	name  string
	lines []string
	err   error
}

// race runs every fallback concurrently. The first success cancels the
// others; race returns only after every call has returned.
func (d *Dispatcher) race(ctx context.Context, b batcher.Batch, systemPrompt, userPrompt string) ([]string, string, error) {
	var (
		raceCtx context.Context
		cancel  context.CancelFunc
	)
	if d.opts.RaceTimeout > 0 {
		raceCtx, cancel = context.WithTimeout(ctx, d.opts.RaceTimeout)
	} else {
		raceCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	results := make(chan raceOutcome, len(d.fallbacks))
	var wg sync.WaitGroup
	for _, p := range d.fallbacks {
		wg.Add(1)
		go func(p *provider) {
			defer wg.Done()
			lines, err := d.attempt(raceCtx, p, b, systemPrompt, userPrompt)
			results <- raceOutcome{name: p.Name, lines: lines, err: err}
		}(p)
	}
	stop := func() {
		cancel()
		wg.Wait()
	}

	var errs []error
	for pending := len(d.fallbacks); pending > 0; {
		select {
		case out := <-results:
			pending--
			if out.err == nil {
				stop()
				return out.lines, out.name, nil
			}
			errs = append(errs, fmt.Errorf("%s: %w", out.name, out.err))
		case <-raceCtx.Done():
			stop()
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
			msg := fmt.Sprintf("fallback race exceeded %s", d.opts.RaceTimeout)
			return nil, "", services.Wrap(services.ErrTimeout, "dispatch", "race", msg, errors.Join(errs...))
		}
	}
	return nil, "", errors.Join(errs...)
}

func (d *Dispatcher) transition(logger *slog.Logger, state State, attrs ...logging.Attr) {
	logger.Debug("batch state", logging.Args(append([]logging.Attr{logging.String("state", string(state))}, attrs...)...)...)
}

func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
