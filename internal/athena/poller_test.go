package athena

import (
	"context"
	"testing"
	"time"

	"athena-gateway/internal/model"
	"athena-gateway/internal/utils"
)

// fakeStatusEngine serves a scripted sequence of execution states.
type fakeStatusEngine struct {
	states      []model.ExecutionState
	statusCalls int
}

func (f *fakeStatusEngine) StartQuery(ctx context.Context, query, database, outputLocation string) (string, error) {
	return "exec-1", nil
}

func (f *fakeStatusEngine) QueryStatus(ctx context.Context, executionID string) (*model.ExecutionStatus, error) {
	state := f.states[len(f.states)-1]
	if f.statusCalls < len(f.states) {
		state = f.states[f.statusCalls]
	}
	f.statusCalls++
	return &model.ExecutionStatus{State: state}, nil
}

func (f *fakeStatusEngine) FetchResults(ctx context.Context, executionID string, maxRows int32) (*ResultPage, error) {
	return &ResultPage{}, nil
}

// fakeClock advances simulated time only when the poller sleeps.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (fc *fakeClock) now() time.Time {
	return fc.current
}

func (fc *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	fc.slept = append(fc.slept, d)
	fc.current = fc.current.Add(d)
	return nil
}

func TestWaitForCompletionReturnsOnTerminalState(t *testing.T) {
	engine := &fakeStatusEngine{states: []model.ExecutionState{
		model.StateRunning,
		model.StateSucceeded,
	}}
	clock := newFakeClock()
	poller := NewPollerWithClock(engine, clock.now, clock.sleep)

	status, err := poller.WaitForCompletion(context.Background(), "exec-1", 60*time.Second)
	if err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}
	if status.State != model.StateSucceeded {
		t.Errorf("Expected SUCCEEDED, got %s", status.State)
	}
	if engine.statusCalls != 2 {
		t.Errorf("Expected 2 status checks, got %d", engine.statusCalls)
	}
}

func TestWaitForCompletionImmediateSuccessSkipsSleep(t *testing.T) {
	engine := &fakeStatusEngine{states: []model.ExecutionState{model.StateSucceeded}}
	clock := newFakeClock()
	poller := NewPollerWithClock(engine, clock.now, clock.sleep)

	if _, err := poller.WaitForCompletion(context.Background(), "exec-1", 60*time.Second); err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}
	if len(clock.slept) != 0 {
		t.Errorf("Expected no sleeps for an already-terminal execution, got %d", len(clock.slept))
	}
}

func TestWaitForCompletionBackoffSequence(t *testing.T) {
	// Enough RUNNING observations to see the interval grow and cap.
	states := make([]model.ExecutionState, 7)
	for i := range states {
		states[i] = model.StateRunning
	}
	states[6] = model.StateSucceeded

	engine := &fakeStatusEngine{states: states}
	clock := newFakeClock()
	poller := NewPollerWithClock(engine, clock.now, clock.sleep)

	if _, err := poller.WaitForCompletion(context.Background(), "exec-1", 300*time.Second); err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}

	expected := []time.Duration{
		1 * time.Second,
		1500 * time.Millisecond,
		2250 * time.Millisecond,
		3375 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
	}
	if len(clock.slept) != len(expected) {
		t.Fatalf("Expected %d sleeps, got %d: %v", len(expected), len(clock.slept), clock.slept)
	}
	for i, want := range expected {
		if clock.slept[i] != want {
			t.Errorf("Sleep %d: expected %v, got %v", i, want, clock.slept[i])
		}
	}
}

func TestWaitForCompletionTimesOut(t *testing.T) {
	engine := &fakeStatusEngine{states: []model.ExecutionState{model.StateRunning}}
	clock := newFakeClock()
	poller := NewPollerWithClock(engine, clock.now, clock.sleep)

	_, err := poller.WaitForCompletion(context.Background(), "exec-1", 3*time.Second)
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !utils.IsErrorType(err, utils.ErrCodeQueryTimeout) {
		t.Errorf("Expected QUERY_TIMEOUT error, got %v", err)
	}
}

func TestWaitForCompletionClampsSleepToDeadline(t *testing.T) {
	engine := &fakeStatusEngine{states: []model.ExecutionState{model.StateRunning}}
	clock := newFakeClock()
	poller := NewPollerWithClock(engine, clock.now, clock.sleep)

	// Deadline of 2s: sleeps 1s, then the 1.5s interval is clamped to the
	// remaining 1s, then the deadline expires.
	_, err := poller.WaitForCompletion(context.Background(), "exec-1", 2*time.Second)
	if !utils.IsErrorType(err, utils.ErrCodeQueryTimeout) {
		t.Fatalf("Expected QUERY_TIMEOUT error, got %v", err)
	}

	expected := []time.Duration{1 * time.Second, 1 * time.Second}
	if len(clock.slept) != len(expected) {
		t.Fatalf("Expected %d sleeps, got %d: %v", len(expected), len(clock.slept), clock.slept)
	}
	for i, want := range expected {
		if clock.slept[i] != want {
			t.Errorf("Sleep %d: expected %v, got %v", i, want, clock.slept[i])
		}
	}
}

func TestWaitForCompletionHonorsContextCancellation(t *testing.T) {
	engine := &fakeStatusEngine{states: []model.ExecutionState{model.StateRunning}}
	clock := newFakeClock()

	ctx, cancel := context.WithCancel(context.Background())
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	poller := NewPollerWithClock(engine, clock.now, sleep)

	_, err := poller.WaitForCompletion(ctx, "exec-1", 60*time.Second)
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
