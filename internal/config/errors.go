package config

import "errors"

var (
	// ErrUnknownDomain indicates a domain name that is not in the registry.
	ErrUnknownDomain = errors.New("unknown domain")

	// ErrNoRecipe indicates a domain with neither a command nor a host/port.
	ErrNoRecipe = errors.New("domain has no connection recipe")

	// ErrAmbiguousRecipe indicates a domain with both recipe kinds set.
	ErrAmbiguousRecipe = errors.New("domain has both command and network recipes")

	// ErrDuplicateDomain indicates two domains sharing a name.
	ErrDuplicateDomain = errors.New("duplicate domain name")
)
