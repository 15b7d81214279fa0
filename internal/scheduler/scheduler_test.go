package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("every tuesday", time.UTC, &countingRefresher{}); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestInterval(t *testing.T) {
	now := time.Date(2023, time.May, 3, 10, 7, 0, 0, time.UTC)
	tests := []struct {
		spec string
		want time.Duration
	}{
		{spec: "*/15 * * * *", want: 15 * time.Minute},
		{spec: "0 * * * *", want: time.Hour},
		{spec: "30 6 * * *", want: 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Interval(tt.spec, time.UTC, now)
			if err != nil {
				t.Fatalf("Interval: %v", err)
			}
			if got != tt.want {
				t.Errorf("Interval = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := Interval("every tuesday", time.UTC, now); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestStartRunsInitialRefresh(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "success"},
		{name: "failure is logged not returned", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingRefresher{err: tt.err}
			s, err := New("0 0 1 1 *", time.UTC, r)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- s.Start(ctx) }()

			deadline := time.After(2 * time.Second)
			for r.calls.Load() == 0 {
				select {
				case <-deadline:
					t.Fatal("initial refresh not run")
				case <-time.After(5 * time.Millisecond):
				}
			}

			cancel()
			if err := <-done; err != nil {
				t.Errorf("Start: %v", err)
			}
			s.Stop()
		})
	}
}
