package triage

import (
	"context"
	"log/slog"
	"os"

	"github.com/joshsymonds/inboxtriage/internal/gmail"
	"github.com/joshsymonds/inboxtriage/internal/rate"
)

// Dialer opens a fresh mailbox session. It is called once per search or
// mutating action; sessions are never reused across calls.
type Dialer func(ctx context.Context) (gmail.Client, error)

// Service runs searches and bulk actions against the mailbox.
type Service struct {
	Dial    Dialer
	Limiter rate.Limiter
	Logger  *slog.Logger

	// OnAuthFailure runs when the provider rejects the session's credential.
	OnAuthFailure func()
}

// NewService constructs a Service with sane defaults.
func NewService(dial Dialer, limiter rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	if limiter == nil {
		limiter = rate.Unlimited{}
	}
	return &Service{
		Dial:    dial,
		Limiter: limiter,
		Logger:  logger,
	}
}

func (s *Service) noteFailure(err error) {
	if s.OnAuthFailure != nil && isAuthFailure(err) {
		s.OnAuthFailure()
	}
}
