package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Simulator   SimulatorConfig `toml:"simulator"`
	Snapshots   SnapshotConfig  `toml:"snapshots"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	SMTP        SMTPConfig      `toml:"smtp"`
	Export      ExportConfig    `toml:"export"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // Only "badger" is supported
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level         string   `toml:"level"`           // "debug", "info", "warn", "error"
	Format        string   `toml:"format"`          // "json" or "text"
	Output        []string `toml:"output"`          // "stdout", "file"
	TimeFormat    string   `toml:"time_format"`     // Time format for logs (default: "15:04:05.000")
	MinEventLevel string   `toml:"min_event_level"` // Minimum log level to stream to the dashboard
}

// SimulatorConfig controls the simulated Selling Partner API. Every delay is
// configurable so tests can shrink them to near zero.
type SimulatorConfig struct {
	TokenDelay         time.Duration `toml:"token_delay"`          // Artificial latency for token exchange
	RequestDelay       time.Duration `toml:"request_delay"`        // Artificial latency per endpoint fetch
	ValidationDelay    time.Duration `toml:"validation_delay"`     // Artificial latency for credential validation
	FailureRate        float64       `toml:"failure_rate"`         // Probability [0,1] that a fetch fails
	RateLimit          time.Duration `toml:"rate_limit"`           // Minimum spacing between fetches (SP-API throttle simulation)
	RateBurst          int           `toml:"rate_burst"`           // Burst allowance for the rate limiter
	TokenTTL           time.Duration `toml:"token_ttl"`            // Fabricated bearer token lifetime
	TokenRefreshWindow time.Duration `toml:"token_refresh_window"` // Refresh when this close to expiry
	Seed               int64         `toml:"seed"`                 // Payload generator seed, 0 = time-based
}

// SnapshotConfig selects when snapshots are captured automatically.
// Manual capture through the API is always available.
type SnapshotConfig struct {
	OnLogin      bool `toml:"on_login"`      // Capture when a session begins
	OnExtraction bool `toml:"on_extraction"` // Capture after each bulk extraction
}

// SchedulerConfig controls background auto-extraction
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron format with seconds field
}

// WebSocketConfig contains configuration for WebSocket log/event streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
	// Whitelist of event types to broadcast via WebSocket. Empty list allows all events.
	AllowedEvents []string `toml:"allowed_events"`
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	// Example: {"extraction.progress": "250ms"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// SMTPConfig configures extraction-completion mail. Disabled while Host is
// empty.
type SMTPConfig struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

// ExportConfig controls export downloads
type ExportConfig struct {
	FilenamePrefix string `toml:"filename_prefix"` // Date is appended: <prefix>-2026-08-25.json
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings should be exposed in vendo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text",
			Output:        []string{"stdout", "file"},
			MinEventLevel: "info",
		},
		Simulator: SimulatorConfig{
			TokenDelay:         400 * time.Millisecond,
			RequestDelay:       250 * time.Millisecond,
			ValidationDelay:    600 * time.Millisecond,
			FailureRate:        0,
			RateLimit:          200 * time.Millisecond, // 5 req/s, in line with SP-API default burst rates
			RateBurst:          2,
			TokenTTL:           time.Hour,
			TokenRefreshWindow: 5 * time.Minute,
			Seed:               0,
		},
		Snapshots: SnapshotConfig{
			OnLogin:      true,
			OnExtraction: true,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,           // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format with seconds)
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
				"Publishing Event",
			},
			// Empty AllowedEvents allows all events
			AllowedEvents: []string{},
			// Throttle progress updates so long catalogs don't flood the socket
			ThrottleIntervals: map[string]string{
				"extraction.progress": "250ms",
			},
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		Export: ExportConfig{
			FilenamePrefix: "vendo-export",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: VENDO_ENV, fallback: GO_ENV)
	if env := os.Getenv("VENDO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VENDO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VENDO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("VENDO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("VENDO_BADGER_RESET_ON_STARTUP"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}

	// Logging configuration
	if level := os.Getenv("VENDO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("VENDO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("VENDO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if minEventLevel := os.Getenv("VENDO_LOG_MIN_EVENT_LEVEL"); minEventLevel != "" {
		config.Logging.MinEventLevel = minEventLevel
	}

	// Simulator configuration
	if tokenDelay := os.Getenv("VENDO_SIMULATOR_TOKEN_DELAY"); tokenDelay != "" {
		if d, err := time.ParseDuration(tokenDelay); err == nil {
			config.Simulator.TokenDelay = d
		}
	}
	if requestDelay := os.Getenv("VENDO_SIMULATOR_REQUEST_DELAY"); requestDelay != "" {
		if d, err := time.ParseDuration(requestDelay); err == nil {
			config.Simulator.RequestDelay = d
		}
	}
	if validationDelay := os.Getenv("VENDO_SIMULATOR_VALIDATION_DELAY"); validationDelay != "" {
		if d, err := time.ParseDuration(validationDelay); err == nil {
			config.Simulator.ValidationDelay = d
		}
	}
	if failureRate := os.Getenv("VENDO_SIMULATOR_FAILURE_RATE"); failureRate != "" {
		if f, err := strconv.ParseFloat(failureRate, 64); err == nil && f >= 0 && f <= 1 {
			config.Simulator.FailureRate = f
		}
	}
	if rateLimit := os.Getenv("VENDO_SIMULATOR_RATE_LIMIT"); rateLimit != "" {
		if d, err := time.ParseDuration(rateLimit); err == nil {
			config.Simulator.RateLimit = d
		}
	}
	if tokenTTL := os.Getenv("VENDO_SIMULATOR_TOKEN_TTL"); tokenTTL != "" {
		if d, err := time.ParseDuration(tokenTTL); err == nil {
			config.Simulator.TokenTTL = d
		}
	}
	if refreshWindow := os.Getenv("VENDO_SIMULATOR_TOKEN_REFRESH_WINDOW"); refreshWindow != "" {
		if d, err := time.ParseDuration(refreshWindow); err == nil {
			config.Simulator.TokenRefreshWindow = d
		}
	}
	if seed := os.Getenv("VENDO_SIMULATOR_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Simulator.Seed = s
		}
	}

	// Snapshot policy
	if onLogin := os.Getenv("VENDO_SNAPSHOTS_ON_LOGIN"); onLogin != "" {
		if b, err := strconv.ParseBool(onLogin); err == nil {
			config.Snapshots.OnLogin = b
		}
	}
	if onExtraction := os.Getenv("VENDO_SNAPSHOTS_ON_EXTRACTION"); onExtraction != "" {
		if b, err := strconv.ParseBool(onExtraction); err == nil {
			config.Snapshots.OnExtraction = b
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("VENDO_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if schedule := os.Getenv("VENDO_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}

	// WebSocket configuration
	if minLevel := os.Getenv("VENDO_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if excludePatterns := os.Getenv("VENDO_WEBSOCKET_EXCLUDE_PATTERNS"); excludePatterns != "" {
		patterns := []string{}
		for _, p := range splitString(excludePatterns, ",") {
			trimmed := trimSpace(p)
			if trimmed != "" {
				patterns = append(patterns, trimmed)
			}
		}
		if len(patterns) > 0 {
			config.WebSocket.ExcludePatterns = patterns
		}
	}
	if allowedEvents := os.Getenv("VENDO_WEBSOCKET_ALLOWED_EVENTS"); allowedEvents != "" {
		events := []string{}
		for _, e := range splitString(allowedEvents, ",") {
			trimmed := trimSpace(e)
			if trimmed != "" {
				events = append(events, trimmed)
			}
		}
		if len(events) > 0 {
			config.WebSocket.AllowedEvents = events
		}
	}
	if progressThrottle := os.Getenv("VENDO_WEBSOCKET_THROTTLE_PROGRESS"); progressThrottle != "" {
		if _, err := time.ParseDuration(progressThrottle); err == nil {
			if config.WebSocket.ThrottleIntervals == nil {
				config.WebSocket.ThrottleIntervals = make(map[string]string)
			}
			config.WebSocket.ThrottleIntervals["extraction.progress"] = progressThrottle
		}
	}

	// SMTP configuration
	if host := os.Getenv("VENDO_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if port := os.Getenv("VENDO_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if username := os.Getenv("VENDO_SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("VENDO_SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if from := os.Getenv("VENDO_SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}
	if to := os.Getenv("VENDO_SMTP_TO"); to != "" {
		recipients := []string{}
		for _, r := range splitString(to, ",") {
			trimmed := trimSpace(r)
			if trimmed != "" {
				recipients = append(recipients, trimmed)
			}
		}
		if len(recipients) > 0 {
			config.SMTP.To = recipients
		}
	}

	// Export configuration
	if prefix := os.Getenv("VENDO_EXPORT_FILENAME_PREFIX"); prefix != "" {
		config.Export.FilenamePrefix = prefix
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := trimSpace(c.Environment)
	return env == "production" || env == "prod"
}
