package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// SuggestionModel is the chat-completion model used for AI suggestions.
	SuggestionModel string `json:"suggestion_model,omitempty"`

	// SuggestionBaseURL is the completion endpoint base URL
	// (any OpenAI-compatible server works).
	SuggestionBaseURL string `json:"suggestion_base_url,omitempty"`

	// SuggestionTimeoutSecs bounds each suggestion request.
	SuggestionTimeoutSecs int `json:"suggestion_timeout_secs,omitempty"`

	// WebBind is the address the web UI binds to.
	WebBind string `json:"web_bind,omitempty"`

	// WebPort is the web UI port.
	WebPort int `json:"web_port,omitempty"`

	// DBMaxOpenConns limits open database connections.
	// 0 means use sql.DB default. Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export files.
	// Paths outside <baseDir>/exports require being listed here or
	// AllowUnsafePaths=true. Paths should be absolute.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SuggestionModel:       "gpt-4o-mini",
		SuggestionBaseURL:     "https://api.openai.com/v1",
		SuggestionTimeoutSecs: 30,
		WebBind:               "127.0.0.1",
		WebPort:               7171,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.retronotes.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// LoadWithRepo loads configuration from both global (~/.retronotes) and
// repo-local (.retronotes) directories. Repo config is found by walking
// upward from startDir. Repo config takes precedence for scalar values;
// arrays are merged (deduplicated). Either or both may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .retronotes/config.json. Returns empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".retronotes", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// SuggestionAPIKey resolves the suggestion credential. A .env in baseDir
// or the working directory is loaded first (best-effort); the
// OPENAI_API_KEY environment variable wins. Empty means unconfigured,
// which is a recoverable condition, not an error.
func SuggestionAPIKey(baseDir string) string {
	_ = godotenv.Load(filepath.Join(baseDir, ".env"))
	_ = godotenv.Load()
	return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.SuggestionModel = overlay.SuggestionModel
	if result.SuggestionModel == "" {
		result.SuggestionModel = base.SuggestionModel
	}

	result.SuggestionBaseURL = overlay.SuggestionBaseURL
	if result.SuggestionBaseURL == "" {
		result.SuggestionBaseURL = base.SuggestionBaseURL
	}

	result.SuggestionTimeoutSecs = overlay.SuggestionTimeoutSecs
	if result.SuggestionTimeoutSecs == 0 {
		result.SuggestionTimeoutSecs = base.SuggestionTimeoutSecs
	}

	result.WebBind = overlay.WebBind
	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
