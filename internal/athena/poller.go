package athena

import (
	"context"
	"fmt"
	"time"

	"athena-gateway/internal/model"
	"athena-gateway/internal/utils"
)

const (
	initialPollInterval = 1 * time.Second
	maxPollInterval     = 5 * time.Second
	backoffMultiplier   = 1.5
)

// Poller drives one execution handle to a terminal state: it repeatedly
// fetches the execution status until the engine reports SUCCEEDED, FAILED or
// CANCELLED, or the caller-supplied deadline expires.
//
// The wait is a cooperative, synchronous sleep between status checks. On
// timeout the remote execution is left running; no cancellation request is
// issued.
type Poller struct {
	engine Engine

	// now and sleep are injected so tests can simulate elapsed time
	// deterministically without real delays.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller over the given engine with wall-clock timing.
func NewPoller(engine Engine) *Poller {
	return &Poller{
		engine: engine,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// NewPollerWithClock creates a poller with explicit time functions.
func NewPollerWithClock(engine Engine, now func() time.Time, sleep func(context.Context, time.Duration) error) *Poller {
	return &Poller{engine: engine, now: now, sleep: sleep}
}

// WaitForCompletion polls until the execution reaches a terminal state or the
// deadline expires. It returns the terminal engine-reported status; callers
// decide how SUCCEEDED, FAILED and CANCELLED are surfaced. A deadline expiry
// returns a QUERY_TIMEOUT error carrying the elapsed time and handle.
//
// The poll interval starts at one second and grows by 1.5x after each
// non-terminal observation, capped at five seconds; each sleep is additionally
// clamped so it never overshoots the remaining deadline.
func (p *Poller) WaitForCompletion(ctx context.Context, executionID string, deadline time.Duration) (*model.ExecutionStatus, error) {
	start := p.now()
	interval := initialPollInterval

	for {
		status, err := p.engine.QueryStatus(ctx, executionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get query status: %w", err)
		}

		if status.State.IsTerminal() {
			return status, nil
		}

		elapsed := p.now().Sub(start)
		if elapsed >= deadline {
			return nil, utils.NewTimeoutError(
				fmt.Sprintf("query did not complete within %d seconds", int(deadline.Seconds())),
				fmt.Sprintf("elapsed: %ds, execution id: %s", int(elapsed.Seconds()), executionID),
			)
		}

		wait := interval
		if remaining := deadline - elapsed; wait > remaining {
			wait = remaining
		}
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}

		interval = time.Duration(float64(interval) * backoffMultiplier)
		if interval > maxPollInterval {
			interval = maxPollInterval
		}
	}
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
