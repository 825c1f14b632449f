package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates outbound mailbox calls so bulk actions stay under provider quotas.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate wait canceled: %w", err)
	}
	return nil
}

// TokenBucket releases a fixed number of tokens per second.
type TokenBucket struct {
	ticker   *time.Ticker
	tokens   chan struct{}
	stop     chan struct{}
	stopDone chan struct{}
}

// MaxRPS is the fastest rate a TokenBucket releases tokens at.
const MaxRPS = 1000

// NewTokenBucket returns a limiter that releases rps tokens per second,
// clamped to [1, MaxRPS].
func NewTokenBucket(rps int) *TokenBucket {
	rps = min(max(rps, 1), MaxRPS)
	tb := &TokenBucket{
		ticker:   time.NewTicker(time.Second / time.Duration(rps)),
		tokens:   make(chan struct{}, rps),
		stop:     make(chan struct{}),
		stopDone: make(chan struct{}),
	}
	// allow the first call to proceed immediately
	tb.tokens <- struct{}{}
	go tb.run()
	return tb
}

func (t *TokenBucket) run() {
	defer close(t.stopDone)
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C:
			select {
			case t.tokens <- struct{}{}:
			default:
			}
		}
	}
}

// Wait blocks until a token is available or the context is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Stop releases the ticker goroutine. It must be called exactly once.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	close(t.stop)
	<-t.stopDone
}

// New returns Unlimited for rps <= 0, otherwise a TokenBucket. The returned
// stop func is always safe to call once.
func New(rps int) (Limiter, func()) {
	if rps <= 0 {
		return Unlimited{}, func() {}
	}
	tb := NewTokenBucket(rps)
	return tb, tb.Stop
}

var (
	_ Limiter = (*TokenBucket)(nil)
	_ Limiter = Unlimited{}
)
