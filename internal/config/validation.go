package config

import (
	"fmt"
	"strings"
)

// Validate checks a configuration for the invariants the router depends on:
// every domain has a name, a single connection recipe, and names are unique
// under case-insensitive matching.
func Validate(cfg Config) error {
	switch cfg.Router.Transport {
	case "", TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		return fmt.Errorf("invalid transport %q (valid: %s, %s, %s)",
			cfg.Router.Transport, TransportStdio, TransportSSE, TransportStreamableHTTP)
	}

	if len(cfg.Domains) == 0 {
		return fmt.Errorf("no domains configured")
	}

	seen := make(map[string]struct{}, len(cfg.Domains))
	for _, d := range cfg.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain with empty name")
		}
		key := strings.ToLower(d.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateDomain, d.Name)
		}
		seen[key] = struct{}{}

		if !d.HasCommand() && !d.HasNetwork() {
			return fmt.Errorf("%w: %q", ErrNoRecipe, d.Name)
		}
		if d.HasCommand() && d.HasNetwork() {
			return fmt.Errorf("%w: %q", ErrAmbiguousRecipe, d.Name)
		}
	}

	return nil
}
