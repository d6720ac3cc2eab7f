package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/avi3tal/agentcanvas/internal/client"
)

// Load resolves the config file against the working directory, so these
// tests chdir into a temp dir and cannot run in parallel.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(previous) })
	return dir
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, "default", cfg.Tenant)
	require.Equal(t, "default", cfg.Project)
	require.Equal(t, client.DefaultManagementURL, cfg.API.Management)
	require.Equal(t, client.DefaultRunURL, cfg.API.Run)
	require.Empty(t, cfg.API.Secret)
	require.False(t, cfg.API.Breaker)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := inTempDir(t)
	writeConfigFile(t, dir, `
tenant = "acme"
project = "support"

[api]
management = "https://manage.acme.dev"
secret = "s3cret"
breaker = true

[log]
level = "debug"
`)

	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, "acme", cfg.Tenant)
	require.Equal(t, "support", cfg.Project)
	require.Equal(t, "https://manage.acme.dev", cfg.API.Management)
	require.Equal(t, client.DefaultRunURL, cfg.API.Run, "unset keys keep their defaults")
	require.Equal(t, "s3cret", cfg.API.Secret)
	require.True(t, cfg.API.Breaker)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)
	writeConfigFile(t, dir, `tenant = "from-file"`)

	t.Setenv("AGENTCANVAS_TENANT", "from-env")
	t.Setenv("AGENTCANVAS_API_MANAGEMENT", "https://manage.env.dev")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Tenant)
	require.Equal(t, "https://manage.env.dev", cfg.API.Management)
}

func TestFlagsOverrideEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("AGENTCANVAS_TENANT", "from-env")
	t.Setenv("AGENTCANVAS_PROJECT", "env-project")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("tenant", "flag-default", "")
	flags.String("project", "flag-default", "")
	require.NoError(t, flags.Parse([]string{"--tenant", "from-flag"}))

	cfg, err := Load(flags)
	require.NoError(t, err)
	require.Equal(t, "from-flag", cfg.Tenant, "a set flag wins over the environment")
	require.Equal(t, "env-project", cfg.Project, "an unset flag defers to lower layers")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("bad log level", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("AGENTCANVAS_LOG_LEVEL", "verbose")

		_, err := Load(nil)
		require.Error(t, err)
	})

	t.Run("bad management url", func(t *testing.T) {
		inTempDir(t)
		t.Setenv("AGENTCANVAS_API_MANAGEMENT", "not a url")

		_, err := Load(nil)
		require.Error(t, err)
	})
}

func TestScopeAndClientOptions(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Tenant:  "acme",
		Project: "support",
		API: API{
			Management: "https://manage.acme.dev",
			Run:        "https://run.acme.dev",
			Secret:     "s3cret",
			Breaker:    true,
		},
		Log: Log{Level: "info"},
	}

	require.Equal(t, client.Scope{TenantID: "acme", ProjectID: "support"}, cfg.Scope())

	// Logger, base URL, secret and breaker.
	require.Len(t, cfg.ManagementOptions(nil), 4)
	require.Len(t, cfg.RunOptions(nil), 4)

	bare := &Config{Tenant: "t", Project: "p", Log: Log{Level: "info"}}
	require.Len(t, bare.ManagementOptions(nil), 1, "only the logger when nothing is configured")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	cfg := &Config{Log: Log{Level: "warn"}}
	log, err := cfg.NewLogger()
	require.NoError(t, err)
	require.NotNil(t, log)

	bad := &Config{Log: Log{Level: "shouting"}}
	_, err = bad.NewLogger()
	require.Error(t, err)
}
