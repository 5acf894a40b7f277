package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecute_PassesThrough(t *testing.T) {
	cb, err := New(DefaultConfig("kafka"), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := cb.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("Execute(success) = %v", err)
	}

	sinkErr := errors.New("produce failed")
	if err := cb.Execute(context.Background(), func(context.Context) error { return sinkErr }); !errors.Is(err, sinkErr) {
		t.Errorf("Execute(failure) = %v, want %v", err, sinkErr)
	}
	if cb.State() != StateClosed {
		t.Errorf("State = %s, want closed", cb.State())
	}
}

func TestExecute_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("kafka")
	cfg.FailureThreshold = 3
	cfg.Timeout = time.Hour

	var transitions []State
	cb, _ := New(cfg, nil, OnStateChange(func(s State) { transitions = append(transitions, s) }))

	calls := 0
	fail := func(context.Context) error {
		calls++
		return errors.New("broker down")
	}
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), fail)
	}

	if !cb.IsOpen() {
		t.Fatalf("State = %s, want open", cb.State())
	}
	if err := cb.Execute(context.Background(), fail); !errors.Is(err, ErrOpen) {
		t.Errorf("Execute while open = %v, want ErrOpen", err)
	}
	if calls != 3 {
		t.Errorf("guarded function called %d times, want 3", calls)
	}
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestExecute_HalfOpenRecovers(t *testing.T) {
	cfg := DefaultConfig("kafka")
	cfg.FailureThreshold = 1
	cfg.Timeout = 10 * time.Millisecond
	cb, _ := New(cfg, nil)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("down") })
	if !cb.IsOpen() {
		t.Fatalf("State = %s, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)
	if err := cb.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("State = %s, want closed", cb.State())
	}
}

func TestExecute_CancellationDoesNotTrip(t *testing.T) {
	cfg := DefaultConfig("kafka")
	cfg.FailureThreshold = 1
	cb, _ := New(cfg, nil)

	err := cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute = %v, want context.Canceled", err)
	}
	if cb.IsOpen() {
		t.Error("cancelled call should not open the circuit")
	}
}
