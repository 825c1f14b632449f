// internal/runtime/auth.go
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	gc "github.com/joshsymonds/inboxtriage/internal/gmail"
	"github.com/joshsymonds/inboxtriage/internal/secrets"
	"github.com/joshsymonds/inboxtriage/internal/triage"
)

// CredentialSource yields a credential for one mailbox session.
type CredentialSource interface {
	Credentials(ctx context.Context) (*secrets.Credential, error)
}

// NewGmailClient opens a Gmail session authorized by ts.
func NewGmailClient(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (gc.Client, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGoogleAPIClient(svc), nil
}

// Dialer resolves a fresh credential and opens a new session on every call.
func Dialer(src CredentialSource, opts ...option.ClientOption) triage.Dialer {
	return func(ctx context.Context) (gc.Client, error) {
		cred, err := src.Credentials(ctx)
		if err != nil {
			return nil, err
		}
		return NewGmailClient(ctx, cred.TokenSource(ctx), opts...)
	}
}

func DefaultLogger() *slog.Logger {
	return NewLogger(slog.LevelInfo)
}

func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
