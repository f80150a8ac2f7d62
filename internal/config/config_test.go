package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TrendWatch/internal/digest"
	"TrendWatch/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{configPathEnv, webhookURLEnv, discordURLEnv, accessTokenEnv, socialModeEnv, resultLimitEnv, logLevelEnv} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trendwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	require.Equal(t, ModeBoth, cfg.Social.Mode)
	require.Equal(t, 10, cfg.Fetch.Limit)
	require.Equal(t, defaultMaxChars, cfg.Digest.MaxChars)
	require.Equal(t, defaultUserAgent, cfg.Fetch.UserAgent)
	require.NotEmpty(t, cfg.Feeds)
	require.NotNil(t, cfg.Digest.Location())

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(cfg.Validate(), &cfgErr))
	require.Equal(t, "delivery.webhookUrl", cfgErr.Field)
}

func TestLoadFromFileMergesOverDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
delivery:
  webhookUrl: https://hooks.example.org/abc
  timeout: 3s
digest:
  title: Test Digest
  maxChars: 900
  timezone: UTC
fetch:
  limit: 50
feeds:
  - name: Only
    url: https://feeds.example.org/rss
social:
  mode: search
  terms: [drill]
filter:
  denylist: []
`)

	cfg := LoadFrom(path)

	require.NoError(t, cfg.Validate())
	require.Equal(t, "https://hooks.example.org/abc", cfg.Delivery.WebhookURL)
	require.Equal(t, 3*time.Second, cfg.Delivery.Timeout)
	require.Equal(t, "Test Digest", cfg.Digest.Title)
	require.Equal(t, 900, cfg.Digest.MaxChars)
	require.Equal(t, time.UTC, cfg.Digest.Location())
	require.Equal(t, maxResultLimit, cfg.Fetch.Limit)
	require.Equal(t, []FeedConfig{{Name: "Only", URL: "https://feeds.example.org/rss"}}, cfg.Feeds)
	require.Equal(t, []string{"drill"}, cfg.Social.Terms)
	require.True(t, cfg.Social.RunsSearch())
	require.False(t, cfg.Social.RunsAccounts())
	require.Empty(t, cfg.Filter.Denylist)
	require.NotEmpty(t, cfg.Filter.Suffixes)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
delivery:
  webhookUrl: https://hooks.example.org/file
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(discordURLEnv, "https://discord.example.org/legacy")
	t.Setenv(webhookURLEnv, "https://hooks.example.org/env")
	t.Setenv(accessTokenEnv, " token ")
	t.Setenv(socialModeEnv, "Accounts")
	t.Setenv(resultLimitEnv, "1")
	t.Setenv(logLevelEnv, "warn")

	cfg := Load()

	require.Equal(t, "https://hooks.example.org/env", cfg.Delivery.WebhookURL)
	require.Equal(t, "token", cfg.Social.AccessToken)
	require.Equal(t, ModeAccounts, cfg.Social.Mode)
	require.Equal(t, minResultLimit, cfg.Fetch.Limit)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromMissingFileFallsBack(t *testing.T) {
	clearEnv(t)

	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Equal(t, defaultConfig().Digest.Title, cfg.Digest.Title)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "relative webhook",
			mutate:  func(c *Config) { c.Delivery.WebhookURL = "/hooks/abc" },
			wantErr: "must be an absolute http(s) URL",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Social.Mode = "firehose" },
			wantErr: "unknown mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadFrom("")
			cfg.Delivery.WebhookURL = "https://hooks.example.org/abc"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDigestCharsClamped(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "digest:\n  maxChars: 50000\n")
	require.Equal(t, maxDigestChars, LoadFrom(path).Digest.MaxChars)

	path = writeConfig(t, "digest:\n  maxChars: 10\n")
	require.Equal(t, minDigestChars, LoadFrom(path).Digest.MaxChars)
}

func TestDefaultDenylistKeepsRapHeadlines(t *testing.T) {
	t.Parallel()

	filter := digest.NewFilter(defaultConfig().Filter.Denylist)

	for _, title := range []string{
		"NBA YoungBoy Drops New Album",
		"Livestock Farmer Turned Rapper Signs Deal",
		"Cryptic Verse Sparks Fan Theories",
	} {
		require.True(t, filter.Keep(domain.Item{Title: title}), title)
	}
	require.False(t, filter.Keep(domain.Item{Title: "Week 3 Fantasy Football Rankings"}))
}
