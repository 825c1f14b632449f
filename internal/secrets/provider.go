package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// DefaultSecretName is used when no secret identifier is configured.
const DefaultSecretName = "gmail-credentials"

// ErrCredentialUnavailable marks any failure to fetch, decode or build a credential.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// RegionResolver picks the region the secret is read from.
type RegionResolver interface {
	Resolve(ctx context.Context) string
}

// Provider materializes a Credential from the secret store on every call,
// unless a Cache is attached.
type Provider struct {
	Store      Store
	Regions    RegionResolver
	SecretName string
	Cache      *Cache
	Logger     *slog.Logger
}

// NewProvider constructs a Provider; an empty secretName selects DefaultSecretName.
func NewProvider(store Store, regions RegionResolver, secretName string, logger *slog.Logger) *Provider {
	if secretName == "" {
		secretName = DefaultSecretName
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Provider{
		Store:      store,
		Regions:    regions,
		SecretName: secretName,
		Logger:     logger,
	}
}

// Credentials returns a freshly built credential. Failures wrap ErrCredentialUnavailable
// and never return a partially constructed value.
func (p *Provider) Credentials(ctx context.Context) (*Credential, error) {
	name := p.SecretName
	if name == "" {
		name = DefaultSecretName
	}
	region := p.Regions.Resolve(ctx)

	if p.Cache == nil {
		return p.fetch(ctx, name, region)
	}
	cred, err := p.Cache.Get(ctx, name+"@"+region, func(ctx context.Context) (*Credential, error) {
		return p.fetch(ctx, name, region)
	})
	if err != nil && !errors.Is(err, ErrCredentialUnavailable) {
		return nil, fmt.Errorf("%w: %w", ErrCredentialUnavailable, err)
	}
	return cred, err
}

// Invalidate drops cached credentials, e.g. after the provider rejected a token.
func (p *Provider) Invalidate() {
	if p.Cache != nil {
		p.Cache.Purge()
		p.Logger.Info("credential cache invalidated", "secret", p.SecretName)
	}
}

func (p *Provider) fetch(ctx context.Context, name, region string) (*Credential, error) {
	p.Logger.Debug("fetching secret", "secret", name, "region", region)
	raw, err := p.Store.GetSecretValue(ctx, name, region)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialUnavailable, err)
	}
	cred, err := ParseCredential([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: secret %q: %w", ErrCredentialUnavailable, name, err)
	}
	return cred, nil
}
