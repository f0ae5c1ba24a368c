package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Router: RouterConfig{Transport: TransportStdio},
		Domains: []DomainConfig{
			{Name: "developer", Command: "node"},
			{Name: "project", Host: "localhost", Port: 9300},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidateEmptyTransport(t *testing.T) {
	cfg := validConfig()
	cfg.Router.Transport = ""
	assert.NoError(t, Validate(cfg), "empty transport means the default")
}

func TestValidateInvalidTransport(t *testing.T) {
	cfg := validConfig()
	cfg.Router.Transport = "carrier-pigeon"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestValidateNoDomains(t *testing.T) {
	cfg := validConfig()
	cfg.Domains = nil
	assert.Error(t, Validate(cfg))
}

func TestValidateEmptyName(t *testing.T) {
	cfg := validConfig()
	cfg.Domains[0].Name = ""
	assert.Error(t, Validate(cfg))
}

func TestValidateDuplicateNamesCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.Domains = append(cfg.Domains, DomainConfig{Name: "DEVELOPER", Command: "node"})

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateDomain)
}

func TestValidateNoRecipe(t *testing.T) {
	cfg := validConfig()
	cfg.Domains[0] = DomainConfig{Name: "developer"}

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRecipe)
}

func TestValidateAmbiguousRecipe(t *testing.T) {
	cfg := validConfig()
	cfg.Domains[0] = DomainConfig{Name: "developer", Command: "node", Host: "localhost", Port: 9300}

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousRecipe)
}
