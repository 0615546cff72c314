package worker

import (
	"context"
	"time"
)

// Clock abstracts time so tests can drive the worker without real waits.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is cancelled, whichever is first.
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

// NewRealClock returns the wall clock.
func NewRealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
