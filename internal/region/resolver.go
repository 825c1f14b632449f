package region

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Default is used when no other source yields a region.
const Default = "us-east-1"

// Environment variables consulted, in precedence order.
const (
	EnvOverride      = "GMAIL_SECRET_REGION"
	EnvCurrentRegion = "AWS_REGION"
	EnvSecretsRegion = "SECRETS_MANAGER_REGION"
)

// Strategy is one source of a region. It reports ok=false when it has no answer.
// Strategies never fail; any lookup error counts as "no answer".
type Strategy struct {
	Name   string
	Lookup func(ctx context.Context) (string, bool)
}

// Resolver picks the first region any strategy produces, falling back to Fallback.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	Strategies []Strategy
	Fallback   string
	Logger     *slog.Logger
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// NewResolver builds the standard chain: dedicated override, current region,
// secret-store region, instance metadata, then Default.
func NewResolver(lookup LookupFunc, probe Prober, logger *slog.Logger) *Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	strategies := []Strategy{
		FromEnv(lookup, EnvOverride),
		FromEnv(lookup, EnvCurrentRegion),
		FromEnv(lookup, EnvSecretsRegion),
	}
	if probe != nil {
		strategies = append(strategies, FromProbe(probe))
	}
	return &Resolver{Strategies: strategies, Fallback: Default, Logger: logger}
}

// Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context) string {
	for _, s := range r.Strategies {
		if region, ok := s.Lookup(ctx); ok {
			r.debug("region resolved", "source", s.Name, "region", region)
			return region
		}
	}
	fallback := r.Fallback
	if fallback == "" {
		fallback = Default
	}
	r.debug("region resolved", "source", "default", "region", fallback)
	return fallback
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, args...)
	}
}

// FromEnv reads key; unset and blank values are both "no answer".
func FromEnv(lookup LookupFunc, key string) Strategy {
	return Strategy{
		Name: "env:" + key,
		Lookup: func(context.Context) (string, bool) {
			v, ok := lookup(key)
			v = strings.TrimSpace(v)
			return v, ok && v != ""
		},
	}
}

// FromProbe asks the hosting platform which region it runs in.
func FromProbe(p Prober) Strategy {
	return Strategy{
		Name: "instance-metadata",
		Lookup: func(ctx context.Context) (string, bool) {
			region, err := p.Region(ctx)
			if err != nil {
				return "", false
			}
			region = strings.TrimSpace(region)
			return region, region != ""
		},
	}
}
