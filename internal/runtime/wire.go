package runtime

import (
	"log/slog"

	"google.golang.org/api/option"

	"github.com/joshsymonds/inboxtriage/internal/config"
	"github.com/joshsymonds/inboxtriage/internal/rate"
	"github.com/joshsymonds/inboxtriage/internal/region"
	"github.com/joshsymonds/inboxtriage/internal/secrets"
	"github.com/joshsymonds/inboxtriage/internal/triage"
)

// NewCredentialProvider builds the provider selected by cfg.CredentialSource.
func NewCredentialProvider(cfg *config.Config, logger *slog.Logger) *secrets.Provider {
	var (
		store   secrets.Store
		regions secrets.RegionResolver
	)
	switch cfg.CredentialSource {
	case config.SourceLocal:
		store = secrets.FileStore{Dir: cfg.LocalDir}
		regions = &region.Resolver{Fallback: region.Default}
	default:
		store = secrets.NewSecretsManager()
		probe := region.NewIMDSProbe(cfg.MetadataEndpoint, cfg.MetadataTimeout)
		regions = region.NewResolver(cfg.Lookup, probe, logger)
	}

	provider := secrets.NewProvider(store, regions, cfg.SecretName, logger)
	if cfg.CacheTTL > 0 {
		provider.Cache = secrets.NewCache(cfg.CacheTTL)
	}
	return provider
}

// NewTriageService wires credentials, the Gmail dialer and the rate limiter.
// The returned stop func releases the limiter.
func NewTriageService(cfg *config.Config, logger *slog.Logger, opts ...option.ClientOption) (*triage.Service, func()) {
	provider := NewCredentialProvider(cfg, logger)
	limiter, stop := rate.New(cfg.RPS)

	svc := triage.NewService(Dialer(provider, opts...), limiter, logger)
	svc.OnAuthFailure = provider.Invalidate
	logger.Debug("triage service ready",
		"credential_source", cfg.CredentialSource,
		"secret", provider.SecretName,
		"cache_ttl", cfg.CacheTTL,
		"rps", cfg.RPS,
	)
	return svc, stop
}
