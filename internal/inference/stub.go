package inference

import (
	"context"
	"sync/atomic"
	"time"
)

// StubGenerator returns a fixed caption. It serves local development and tests.
type StubGenerator struct {
	Caption string
	Err     error
	// Delay simulates model latency and honours ctx cancellation.
	Delay time.Duration

	calls atomic.Int64
}

func (s *StubGenerator) GenerateCaption(ctx context.Context, _ []byte) (string, error) {
	s.calls.Add(1)
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", NewTransientError(ctx.Err())
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Caption, nil
}

// Calls reports how many captions were requested.
func (s *StubGenerator) Calls() int64 {
	return s.calls.Load()
}
