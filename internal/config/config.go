package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Discord       DiscordConfig
	Report        ReportConfig
	Reminder      ReminderConfig
	Shortener     ShortenerConfig
	StatsAPI      StatsAPIConfig
	Cron          CronConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	URL         string
	Path        string
	AutoMigrate bool
	LogTiming   bool
}

type DiscordConfig struct {
	BotToken            string
	ClientID            string
	PublicKey           string
	APIBaseURL          string
	AnnouncementChannel string
}

// ReportConfig holds the raw daily report settings. report.NewConfig validates them.
type ReportConfig struct {
	Channel      string
	WorkspaceID  string
	SkipWeekends string
	Format       string
	Timezone     string
}

type ReminderConfig struct {
	RoleID string
}

type ShortenerConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StatsAPIConfig struct {
	BaseURL     string
	APIKey      string
	MaxAttempts int
	BaseDelay   time.Duration
	RatePerSec  float64
}

type CronConfig struct {
	Secret string
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

// Load reads configuration for the HTTP server. Discord credentials are required outside local/dev.
func Load() (Config, error) {
	return load(true)
}

// LoadForTool loads config for CLI tools that do not verify inbound signatures.
func LoadForTool() (Config, error) {
	return load(false)
}

func load(requirePublicKey bool) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "")
	v.SetDefault("db_path", "data/discordbot")
	v.SetDefault("db_log_timing", false)
	v.SetDefault("discord_api_base_url", "https://discord.com/api/v10")
	v.SetDefault("discord_daily_report_skip_weekends", "true")
	v.SetDefault("discord_daily_report_format", "summary")
	v.SetDefault("discord_daily_report_timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("shortener_base_url", "https://tuturuuu.com/s")
	v.SetDefault("shortener_timeout_seconds", 10)
	v.SetDefault("tuturuuu_api_url", "")
	v.SetDefault("tuturuuu_api_key", "")
	v.SetDefault("stats_api_max_attempts", 3)
	v.SetDefault("stats_api_base_delay_ms", 1000)
	v.SetDefault("stats_api_rate_per_sec", 5.0)
	v.SetDefault("cron_secret", "")
	v.SetDefault("discordbot_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "discordbot")
	v.SetDefault("otel_service_version", "dev")
	v.SetDefault("discordbot_otel_sampling_ratio", 1.0)
	v.SetDefault("discordbot_otel_metrics_console", false)

	env := resolveEnvironment(v)
	port := v.GetInt("port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %d", port)
	}

	samplingRatio := v.GetFloat64("discordbot_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	shortenTimeout := v.GetInt("shortener_timeout_seconds")
	if shortenTimeout <= 0 {
		shortenTimeout = 10
	}

	maxAttempts := v.GetInt("stats_api_max_attempts")
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if maxAttempts > 10 {
		maxAttempts = 10
	}
	baseDelay := v.GetInt("stats_api_base_delay_ms")
	if baseDelay <= 0 {
		baseDelay = 1000
	}

	databaseURL := strings.TrimSpace(v.GetString("database_url"))
	autoMigrate := !isPostgresURL(databaseURL)
	if v.IsSet("db_auto_migrate") {
		autoMigrate = v.GetBool("db_auto_migrate")
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("discordbot_otel_metrics_console")
	otelEnabled := v.GetBool("discordbot_otel_enabled") || otlpEndpoint != "" || metricsConsole

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Database: DatabaseConfig{
			URL:         databaseURL,
			Path:        strings.TrimSpace(v.GetString("db_path")),
			AutoMigrate: autoMigrate,
			LogTiming:   v.GetBool("db_log_timing"),
		},
		Discord: DiscordConfig{
			BotToken:            strings.TrimSpace(v.GetString("discord_bot_token")),
			ClientID:            strings.TrimSpace(v.GetString("discord_client_id")),
			PublicKey:           strings.TrimSpace(v.GetString("discord_public_key")),
			APIBaseURL:          strings.TrimRight(strings.TrimSpace(v.GetString("discord_api_base_url")), "/"),
			AnnouncementChannel: strings.TrimSpace(v.GetString("discord_announcement_channel")),
		},
		Report: ReportConfig{
			Channel:      firstNonEmpty(v.GetString("discord_daily_report_channel"), v.GetString("discord_announcement_channel")),
			WorkspaceID:  strings.TrimSpace(v.GetString("discord_daily_report_workspace_id")),
			SkipWeekends: strings.TrimSpace(v.GetString("discord_daily_report_skip_weekends")),
			Format:       strings.TrimSpace(v.GetString("discord_daily_report_format")),
			Timezone:     strings.TrimSpace(v.GetString("discord_daily_report_timezone")),
		},
		Reminder: ReminderConfig{
			RoleID: strings.TrimSpace(v.GetString("discord_wol_role_id")),
		},
		Shortener: ShortenerConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString("shortener_base_url")), "/"),
			Timeout: time.Duration(shortenTimeout) * time.Second,
		},
		StatsAPI: StatsAPIConfig{
			BaseURL:     strings.TrimRight(strings.TrimSpace(v.GetString("tuturuuu_api_url")), "/"),
			APIKey:      strings.TrimSpace(v.GetString("tuturuuu_api_key")),
			MaxAttempts: maxAttempts,
			BaseDelay:   time.Duration(baseDelay) * time.Millisecond,
			RatePerSec:  v.GetFloat64("stats_api_rate_per_sec"),
		},
		Cron: CronConfig{
			Secret: strings.TrimSpace(v.GetString("cron_secret")),
		},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       valueOrDefault(v.GetString("otel_service_name"), "discordbot"),
			ServiceVer:        valueOrDefault(v.GetString("otel_service_version"), "dev"),
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/discordbot"
	}
	if requirePublicKey && !cfg.IsLocalDevelopment() && cfg.Discord.PublicKey == "" {
		return Config{}, fmt.Errorf("DISCORD_PUBLIC_KEY is required outside local/dev environments")
	}

	return cfg, nil
}

// UsesPostgres reports whether DATABASE_URL points at a Postgres server.
func (c Config) UsesPostgres() bool {
	return isPostgresURL(c.Database.URL)
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// StatsAPIEnabled reports whether the external time tracking stats API is configured.
func (c Config) StatsAPIEnabled() bool {
	return c.StatsAPI.BaseURL != "" && c.StatsAPI.APIKey != ""
}

func isPostgresURL(raw string) bool {
	raw = strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://")
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}

func valueOrDefault(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
