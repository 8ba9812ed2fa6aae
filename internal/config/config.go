package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const envPrefix = "YTSCRIBE_"

const (
	SERVER_ADDRESS              = "server.address"
	SERVER_DEBUG                = "server.debug"
	SERVER_REGION               = "server.region"
	SERVER_SHUTDOWN_TIMEOUT     = "server.shutdown_timeout"
	LOGGING_LEVEL               = "logging.level"
	LOGGING_FORMAT              = "logging.format"
	LOGGING_WRITE_IN_FILE       = "logging.write_in_file"
	LOGGING_FILE_PATH           = "logging.file_path"
	HTTP_PROXY                  = "http.proxy"
	HTTP_NO_PROXY               = "http.no_proxy"
	HTTP_TIMEOUT                = "http.timeout"
	YOUTUBE_COOKIE_FILE         = "youtube.cookie_file"
	YOUTUBE_REQUESTS_PER_SECOND = "youtube.requests_per_second"
	YOUTUBE_BURST               = "youtube.burst"
	YOUTUBE_DEFAULT_LANGUAGE    = "youtube.default_language"
	SUBTITLES_EXECUTABLE        = "subtitles.executable"
	SUBTITLES_JS_RUNTIME        = "subtitles.js_runtime"
	SUBTITLES_FORMAT            = "subtitles.format"
	SUBTITLES_TIMEOUT           = "subtitles.timeout"
	SUBTITLES_TEMP_DIRECTORY    = "subtitles.temp_directory"
	SUBTITLES_AUTO_INSTALL      = "subtitles.auto_install"
	CAPTIONS_ORDER              = "captions.order"
	STORAGE_DRIVER              = "storage.driver"
	STORAGE_DSN                 = "storage.dsn"
	STORAGE_MONGO_URI           = "storage.mongo_uri"
	STORAGE_MONGO_DATABASE      = "storage.mongo_database"
	STORAGE_MEMORY_TTL          = "storage.memory_ttl"
	AI_TIMEOUT                  = "ai.timeout"
	AI_MAX_ATTEMPTS             = "ai.max_attempts"
	AI_BASE_DELAY               = "ai.base_delay"
	AI_API_KEY                  = "ai.api_key"
	AI_SHARED_SECRET            = "ai.shared_secret"
	AI_DEFAULT_MODEL            = "ai.default_model"
	AI_SYSTEM_PROMPT            = "ai.system_prompt"
	AI_MODELS                   = "ai.models"
)

const (
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

const (
	SourceLibrary = "library"
	SourceYtdlp   = "ytdlp"
	SourceScrape  = "scrape"
)

var (
	ErrUnknownStorageDriver = errors.New("unknown storage driver")
	ErrUnknownCaptionSource = errors.New("unknown caption source")
	ErrInvalidTimeout       = errors.New("timeout must be positive")
	ErrMissingMongoURI      = errors.New("mongo storage requires storage.mongo_uri")
	ErrDefaultModelMissing  = errors.New("default model has no configured endpoint")
)

// modernc.org/sqlite pragmas applied unless the DSN sets them.
var defaultSQLitePragmas = []string{
	"busy_timeout(10000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func defaults() map[string]any {
	return map[string]any{
		SERVER_ADDRESS:              ":8080",
		SERVER_DEBUG:                false,
		SERVER_REGION:               "",
		SERVER_SHUTDOWN_TIMEOUT:     10 * time.Second,
		LOGGING_LEVEL:               "info",
		LOGGING_FORMAT:              "text",
		LOGGING_WRITE_IN_FILE:       false,
		LOGGING_FILE_PATH:           "ytscribe.log",
		HTTP_PROXY:                  nil,
		HTTP_NO_PROXY:               []string{},
		HTTP_TIMEOUT:                30 * time.Second,
		YOUTUBE_COOKIE_FILE:         "/app/cookies.txt",
		YOUTUBE_REQUESTS_PER_SECOND: 0.0,
		YOUTUBE_BURST:               1,
		YOUTUBE_DEFAULT_LANGUAGE:    "en",
		SUBTITLES_EXECUTABLE:        "",
		SUBTITLES_JS_RUNTIME:        "node",
		SUBTITLES_FORMAT:            "json3/vtt",
		SUBTITLES_TIMEOUT:           90 * time.Second,
		SUBTITLES_TEMP_DIRECTORY:    "",
		SUBTITLES_AUTO_INSTALL:      false,
		CAPTIONS_ORDER:              []string{SourceLibrary, SourceYtdlp, SourceScrape},
		STORAGE_DRIVER:              StorageSQLite,
		STORAGE_DSN:                 "ytscribe.db",
		STORAGE_MONGO_URI:           "",
		STORAGE_MONGO_DATABASE:      "ytscribe",
		STORAGE_MEMORY_TTL:          time.Hour,
		AI_TIMEOUT:                  120 * time.Second,
		AI_MAX_ATTEMPTS:             3,
		AI_BASE_DELAY:               time.Second,
		AI_API_KEY:                  "",
		AI_SHARED_SECRET:            "",
		AI_DEFAULT_MODEL:            "chatgpt",
		AI_SYSTEM_PROMPT:            defaultSystemPrompt,
	}
}

const defaultSystemPrompt = "You summarize YouTube video transcripts. " +
	"Answer in markdown with a short overview paragraph followed by the key points as a bulleted list. " +
	"Write in the language of the transcript."

func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	cfg := &Config{k: k}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New builds a config from defaults overridden by values, used by tests and tooling.
func New(values map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, err
	}
	cfg := &Config{k: k}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps YTSCRIBE_AI__API_KEY to ai.api_key.
func envKey(s string) string {
	return strings.ReplaceAll(
		strings.ToLower(strings.TrimPrefix(s, envPrefix)),
		"__", ".",
	)
}

func (c *Config) Validate() error {
	var errs []error

	storage := c.Storage()
	switch storage.Driver {
	case StorageSQLite, StorageMemory:
	case StorageMongo:
		if storage.MongoURI == "" {
			errs = append(errs, ErrMissingMongoURI)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, storage.Driver))
	}

	known := []string{SourceLibrary, SourceYtdlp, SourceScrape}
	for _, name := range c.Captions().Order {
		if !slices.Contains(known, name) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownCaptionSource, name))
		}
	}

	timeouts := map[string]time.Duration{
		SUBTITLES_TIMEOUT: c.k.Duration(SUBTITLES_TIMEOUT),
		AI_TIMEOUT:        c.k.Duration(AI_TIMEOUT),
		HTTP_TIMEOUT:      c.k.Duration(HTTP_TIMEOUT),
	}
	for key, value := range timeouts {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidTimeout, key))
		}
	}

	ai := c.AI()
	if len(ai.Models) > 0 {
		if _, ok := ai.Models[ai.DefaultModel]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDefaultModelMissing, ai.DefaultModel))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) Server() ServerConfig {
	return ServerConfig{
		Address:         c.k.String(SERVER_ADDRESS),
		Debug:           c.k.Bool(SERVER_DEBUG),
		Region:          c.k.String(SERVER_REGION),
		ShutdownTimeout: c.k.Duration(SERVER_SHUTDOWN_TIMEOUT),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		Format:      c.k.String(LOGGING_FORMAT),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue, ok := c.k.Get(HTTP_PROXY).(string); ok {
		proxy = proxyValue
	}

	return HTTPConfig{
		proxy:   &proxy,
		noProxy: c.k.Strings(HTTP_NO_PROXY),
		Timeout: c.k.Duration(HTTP_TIMEOUT),
	}
}

func (c *Config) YouTube() YouTubeConfig {
	return YouTubeConfig{
		CookieFile:        c.k.String(YOUTUBE_COOKIE_FILE),
		RequestsPerSecond: c.k.Float64(YOUTUBE_REQUESTS_PER_SECOND),
		Burst:             c.k.Int(YOUTUBE_BURST),
		DefaultLanguage:   c.k.String(YOUTUBE_DEFAULT_LANGUAGE),
	}
}

func (c *Config) Subtitles() SubtitlesConfig {
	return SubtitlesConfig{
		Executable:    c.k.String(SUBTITLES_EXECUTABLE),
		JSRuntime:     c.k.String(SUBTITLES_JS_RUNTIME),
		Format:        c.k.String(SUBTITLES_FORMAT),
		Timeout:       c.k.Duration(SUBTITLES_TIMEOUT),
		TempDirectory: c.k.String(SUBTITLES_TEMP_DIRECTORY),
		AutoInstall:   c.k.Bool(SUBTITLES_AUTO_INSTALL),
	}
}

func (c *Config) Captions() CaptionsConfig {
	return CaptionsConfig{
		Order: c.k.Strings(CAPTIONS_ORDER),
	}
}

func (c *Config) Storage() StorageConfig {
	return StorageConfig{
		Driver:        strings.ToLower(c.k.String(STORAGE_DRIVER)),
		DSN:           c.k.String(STORAGE_DSN),
		MongoURI:      c.k.String(STORAGE_MONGO_URI),
		MongoDatabase: c.k.String(STORAGE_MONGO_DATABASE),
		MemoryTTL:     c.k.Duration(STORAGE_MEMORY_TTL),
	}
}

func (c *Config) AI() AIConfig {
	return AIConfig{
		Timeout:      c.k.Duration(AI_TIMEOUT),
		MaxAttempts:  c.k.Int(AI_MAX_ATTEMPTS),
		BaseDelay:    c.k.Duration(AI_BASE_DELAY),
		APIKey:       c.k.String(AI_API_KEY),
		SharedSecret: c.k.String(AI_SHARED_SECRET),
		DefaultModel: c.k.String(AI_DEFAULT_MODEL),
		SystemPrompt: c.k.String(AI_SYSTEM_PROMPT),
		Models:       c.k.StringMap(AI_MODELS),
	}
}

// SQLiteDSN returns the storage DSN with the default pragmas appended.
func (c *Config) SQLiteDSN() string {
	dsn := c.k.String(STORAGE_DSN)
	path, query, _ := strings.Cut(dsn, "?")

	var params []string
	if query != "" {
		params = strings.Split(query, "&")
	}

	for _, pragma := range defaultSQLitePragmas {
		name, _, _ := strings.Cut(pragma, "(")
		if !strings.Contains(query, "_pragma="+name) {
			params = append(params, "_pragma="+pragma)
		}
	}

	if len(params) == 0 {
		return path
	}
	return path + "?" + strings.Join(params, "&")
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"ytscribe.toml",
		"config.toml",
		filepath.Join(xdgConfig, "ytscribe", "config.toml"),
		"/etc/ytscribe/config.toml",
	}
}
