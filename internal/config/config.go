package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TrendWatch/internal/domain"
)

const (
	defaultTimezone  = "America/New_York"
	defaultUserAgent = "trendwatch/1.0"

	configPathEnv    = "TRENDWATCH_CONFIG"
	webhookURLEnv    = "TRENDWATCH_WEBHOOK_URL"
	discordURLEnv    = "DISCORD_WEBHOOK_URL"
	accessTokenEnv   = "MASTODON_ACCESS_TOKEN"
	socialModeEnv    = "TRENDWATCH_SOCIAL_MODE"
	resultLimitEnv   = "TRENDWATCH_LIMIT"
	logLevelEnv      = "TRENDWATCH_LOG_LEVEL"
	minResultLimit   = 5
	maxResultLimit   = 20
	defaultMaxChars  = 1900
	minDigestChars   = 200
	maxDigestChars   = 2000
	defaultFetchWait = 10 * time.Second
)

// Social modes select which Mastodon strategies run.
const (
	ModeAccounts = "accounts"
	ModeSearch   = "search"
	ModeBoth     = "both"
)

// Config holds every setting a run needs. It is built once at startup and
// passed to the application; nothing reads the environment afterwards.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Digest   DigestConfig   `yaml:"digest"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Feeds    []FeedConfig   `yaml:"feeds"`
	Social   SocialConfig   `yaml:"social"`
	Filter   FilterConfig   `yaml:"filter"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DeliveryConfig describes the webhook that receives the digest.
type DeliveryConfig struct {
	WebhookURL string        `yaml:"webhookUrl"`
	Username   string        `yaml:"username"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DigestConfig shapes the rendered message.
type DigestConfig struct {
	Title    string         `yaml:"title"`
	Footer   string         `yaml:"footer"`
	Timezone string         `yaml:"timezone"`
	MaxChars int            `yaml:"maxChars"`
	location *time.Location `yaml:"-"`
}

// Location resolves the digest timezone string to a time.Location.
func (d DigestConfig) Location() *time.Location {
	if d.location != nil {
		return d.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FetchConfig applies to every outbound source request.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
	Limit     int           `yaml:"limit"`
}

// FeedConfig is a single RSS or Atom endpoint.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SocialConfig wires the Mastodon-compatible search source.
type SocialConfig struct {
	BaseURL     string   `yaml:"baseUrl"`
	AccessToken string   `yaml:"accessToken"`
	Mode        string   `yaml:"mode"`
	Accounts    []string `yaml:"accounts"`
	Terms       []string `yaml:"terms"`
}

// RunsAccounts reports whether account timelines are queried.
func (s SocialConfig) RunsAccounts() bool {
	return s.Mode == ModeAccounts || s.Mode == ModeBoth
}

// RunsSearch reports whether keyword search is queried.
func (s SocialConfig) RunsSearch() bool {
	return s.Mode == ModeSearch || s.Mode == ModeBoth
}

// FilterConfig holds the junk denylist and the title suffixes to strip.
type FilterConfig struct {
	Denylist []string `yaml:"denylist"`
	Suffixes []string `yaml:"suffixes"`
}

// Load reads the YAML file named by TRENDWATCH_CONFIG (if any) and applies
// environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads YAML configuration from path (if non-empty) over the
// defaults and applies environment overrides.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

// Validate reports the first setting that makes a run impossible.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Delivery.WebhookURL) == "" {
		return &domain.ConfigurationError{Field: "delivery.webhookUrl", Reason: "required"}
	}
	u, err := url.Parse(c.Delivery.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ConfigurationError{Field: "delivery.webhookUrl", Reason: "must be an absolute http(s) URL"}
	}
	switch c.Social.Mode {
	case ModeAccounts, ModeSearch, ModeBoth:
	default:
		return &domain.ConfigurationError{Field: "social.mode", Reason: "unknown mode " + strconv.Quote(c.Social.Mode)}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(discordURLEnv); v != "" {
		c.Delivery.WebhookURL = v
	}
	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Delivery.WebhookURL = v
	}

	if v := os.Getenv(accessTokenEnv); v != "" {
		c.Social.AccessToken = v
	}

	if v := os.Getenv(socialModeEnv); v != "" {
		c.Social.Mode = v
	}

	if v := os.Getenv(resultLimitEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Fetch.Limit = n
		} else {
			log.Printf("config: ignoring %s=%q: %v", resultLimitEnv, v, err)
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) normalize() {
	c.Fetch.Limit = clamp(c.Fetch.Limit, minResultLimit, maxResultLimit)
	if c.Digest.MaxChars == 0 {
		c.Digest.MaxChars = defaultMaxChars
	}
	c.Digest.MaxChars = clamp(c.Digest.MaxChars, minDigestChars, maxDigestChars)
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = defaultFetchWait
	}
	if c.Delivery.Timeout <= 0 {
		c.Delivery.Timeout = defaultFetchWait
	}
	if strings.TrimSpace(c.Fetch.UserAgent) == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
	c.Social.Mode = strings.ToLower(strings.TrimSpace(c.Social.Mode))
	if c.Social.Mode == "" {
		c.Social.Mode = ModeBoth
	}
	c.Delivery.WebhookURL = strings.TrimSpace(c.Delivery.WebhookURL)
	c.Social.AccessToken = strings.TrimSpace(c.Social.AccessToken)
}

func (c *Config) bindTimezone() {
	tz := c.Digest.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Digest.location = loc
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Delivery.WebhookURL != "" {
		base.Delivery.WebhookURL = override.Delivery.WebhookURL
	}
	if override.Delivery.Username != "" {
		base.Delivery.Username = override.Delivery.Username
	}
	if override.Delivery.Timeout > 0 {
		base.Delivery.Timeout = override.Delivery.Timeout
	}

	if override.Digest.Title != "" {
		base.Digest.Title = override.Digest.Title
	}
	if override.Digest.Footer != "" {
		base.Digest.Footer = override.Digest.Footer
	}
	if override.Digest.Timezone != "" {
		base.Digest.Timezone = override.Digest.Timezone
	}
	if override.Digest.MaxChars != 0 {
		base.Digest.MaxChars = override.Digest.MaxChars
	}

	if override.Fetch.Timeout > 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.Limit != 0 {
		base.Fetch.Limit = override.Fetch.Limit
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Social.BaseURL != "" {
		base.Social.BaseURL = override.Social.BaseURL
	}
	if override.Social.AccessToken != "" {
		base.Social.AccessToken = override.Social.AccessToken
	}
	if override.Social.Mode != "" {
		base.Social.Mode = override.Social.Mode
	}
	if len(override.Social.Accounts) > 0 {
		base.Social.Accounts = override.Social.Accounts
	}
	if len(override.Social.Terms) > 0 {
		base.Social.Terms = override.Social.Terms
	}

	if override.Filter.Denylist != nil {
		base.Filter.Denylist = override.Filter.Denylist
	}
	if override.Filter.Suffixes != nil {
		base.Filter.Suffixes = override.Filter.Suffixes
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Delivery: DeliveryConfig{Username: "Rap Trend Watch", Timeout: defaultFetchWait},
		Digest: DigestConfig{
			Title:    "Rap Trend Watch",
			Footer:   "_Ranked by engagement and recency._",
			Timezone: defaultTimezone,
			MaxChars: defaultMaxChars,
		},
		Fetch: FetchConfig{Timeout: defaultFetchWait, UserAgent: defaultUserAgent, Limit: 10},
		Feeds: []FeedConfig{
			{Name: "HipHopDX", URL: "https://hiphopdx.com/rss/news.xml"},
			{Name: "XXL", URL: "https://www.xxlmag.com/feed/"},
			{Name: "HotNewHipHop", URL: "https://www.hotnewhiphop.com/rss/news.xml"},
		},
		Social: SocialConfig{
			BaseURL:  "https://mastodon.social",
			Mode:     ModeBoth,
			Accounts: []string{"hiphopdx@mastodon.social"},
			Terms:    []string{"hiphop", "rap"},
		},
		Filter: FilterConfig{
			Denylist: []string{"fantasy football", "nfl draft", "box score", "election results", "stock market", "mortgage rates", "recipe", "horoscope"},
			Suffixes: []string{"HipHopDX", "XXL", "XXL Mag", "HotNewHipHop", "Complex", "Billboard", "Rolling Stone", "Pitchfork"},
		},
	}
}
