package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost", cfg.Router.Host)
	assert.Equal(t, 8587, cfg.Router.Port)
	assert.Equal(t, TransportStdio, cfg.Router.Transport)
	assert.Equal(t, 10, cfg.Router.ConnectTimeoutSeconds)
	assert.Equal(t, 60, cfg.Router.CallTimeoutSeconds)
	assert.True(t, cfg.Router.DescriptionRefreshEnabled(), "description refresh defaults on")
	assert.True(t, cfg.Router.ListAllEntitiesEnabled(), "listAllEntities defaults on")

	require.Len(t, cfg.Domains, 5)
	names := make([]string, 0, len(cfg.Domains))
	for _, d := range cfg.Domains {
		names = append(names, d.Name)
		assert.True(t, d.HasCommand(), "%s: stock domains are stdio subprocesses", d.Name)
		assert.False(t, d.HasNetwork(), d.Name)
		assert.NotEmpty(t, d.EntityTypes, d.Name)
		assert.Contains(t, d.Env, "MEMORY_FILE_PATH", d.Name)
		assert.Contains(t, d.Env, "SESSION_FILE_PATH", d.Name)
	}
	assert.Equal(t, []string{"developer", "project", "student", "qualitative-research", "quantitative-research"}, names)

	require.NoError(t, Validate(cfg), "the built-in defaults must validate")
}

func TestDefaultConfigHonorsServersDir(t *testing.T) {
	t.Setenv(EnvServersDir, "/opt/kg-servers")

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/opt/kg-servers", "developer", "index.js"), cfg.Domains[0].Args[0])
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, cfg.Domains, 5)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	data := `
router:
  host: 0.0.0.0
  port: 9100
  transport: streamable-http
domains:
  - name: developer
    description: Dev graph
    entityTypes: [project, component]
    command: node
    args: [/srv/developer/index.js]
  - name: qualitative-research
    host: graphs.internal
    port: 9301
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(data), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Router.Host)
	assert.Equal(t, 9100, cfg.Router.Port)
	assert.Equal(t, TransportStreamableHTTP, cfg.Router.Transport)
	assert.Equal(t, filepath.Join(dir, "descriptions"), cfg.Router.DescriptionsDir,
		"descriptions dir defaults next to the config file")

	require.Len(t, cfg.Domains, 2, "a config that lists domains replaces the stock set")
	assert.True(t, cfg.Domains[0].HasCommand())
	assert.True(t, cfg.Domains[1].HasNetwork())
	assert.Equal(t, "http://graphs.internal:9301/mcp", cfg.Domains[1].URL())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	data := `
domains:
  - name: developer
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(data), 0o644))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRecipe)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("domains: [::"), 0o644))

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestFilterDomains(t *testing.T) {
	cfg := DefaultConfig()

	filtered, err := FilterDomains(cfg, []string{"Developer", " student "})
	require.NoError(t, err)
	require.Len(t, filtered.Domains, 2)
	assert.Equal(t, "developer", filtered.Domains[0].Name, "matching is case-insensitive, the configured casing survives")
	assert.Equal(t, "student", filtered.Domains[1].Name)
}

func TestFilterDomainsUnknownName(t *testing.T) {
	cfg := DefaultConfig()

	_, err := FilterDomains(cfg, []string{"developer", "finance"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.Contains(t, err.Error(), "finance")
}

func TestFilterDomainsEmptyListIsNoop(t *testing.T) {
	cfg := DefaultConfig()

	filtered, err := FilterDomains(cfg, nil)
	require.NoError(t, err)
	assert.Len(t, filtered.Domains, 5)
}
