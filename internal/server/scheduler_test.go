package server

import (
	"context"
	"io"
	"log"
	"testing"
	"time"
)

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	if _, err := NewScheduler("not a cron spec", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSchedulerRunsJobOnSchedule(t *testing.T) {
	ran := make(chan struct{}, 1)
	sched, err := NewScheduler("* * * * * * *", func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	sched.Logger = log.New(io.Discard, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never fired")
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	sched, err := NewScheduler("0 0 1 1 *", func(context.Context) error {
		t.Error("job must not fire after cancel")
		return nil
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
