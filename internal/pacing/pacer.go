// internal/pacing/pacer.go
package pacing

import (
	"context"
	"time"
)

// Defaults mirror the provider's observed limits: roughly 45-60 requests per
// minute, so a short pause between ordinary sends and a minute-long cool-down
// after every batch of 45.
const (
	DefaultShortDelay = 1 * time.Second
	DefaultLongDelay  = 60 * time.Second
	DefaultBatchSize  = 45
)

// Pacer enforces the inter-send delay policy for one sequential send stream.
// It holds no cross-campaign state; each dispatch applies it independently to
// its own stream.
type Pacer struct {
	short time.Duration
	long  time.Duration
	batch int
}

func New(short, long time.Duration, batch int) *Pacer {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Pacer{short: short, long: long, batch: batch}
}

// DelayFor returns the pause owed after the sent-th delivery (1-based): the
// long cool-down after every batch-th send, the short delay otherwise.
func (p *Pacer) DelayFor(sent int) time.Duration {
	if sent > 0 && sent%p.batch == 0 {
		return p.long
	}
	return p.short
}

// Wait blocks for the delay owed after the sent-th delivery. Callers skip the
// call after the final send of a batch. The wait unwinds promptly when ctx is
// cancelled.
func (p *Pacer) Wait(ctx context.Context, sent int) error {
	d := p.DelayFor(sent)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
