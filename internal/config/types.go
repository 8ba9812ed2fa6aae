package config

import (
	"os"
	"strings"
	"time"
)

type ServerConfig struct {
	Address         string
	Debug           bool
	Region          string
	ShutdownTimeout time.Duration
}

// RegionName falls back to the platform-provided region variables.
func (c ServerConfig) RegionName() string {
	if c.Region != "" {
		return c.Region
	}
	for _, key := range []string{"REGION", "FLY_REGION", "FUNCTION_REGION"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "unknown"
}

type HTTPConfig struct {
	proxy   *string
	noProxy []string
	Timeout time.Duration
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if proxyURL := os.Getenv(key); proxyURL != "" {
			return proxyURL
		}
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.noProxy) > 0 {
		return c.noProxy
	}
	for _, key := range []string{"NO_PROXY", "no_proxy"} {
		if v := os.Getenv(key); v != "" {
			var hosts []string
			for host := range strings.SplitSeq(v, ",") {
				if host = strings.TrimSpace(host); host != "" {
					hosts = append(hosts, host)
				}
			}
			return hosts
		}
	}
	return nil
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	Format      string `koanf:"format"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

func (c LoggingConfig) IsJSON() bool {
	return strings.EqualFold(c.Format, "json")
}

type YouTubeConfig struct {
	CookieFile        string
	RequestsPerSecond float64
	Burst             int
	DefaultLanguage   string
}

type SubtitlesConfig struct {
	Executable    string
	JSRuntime     string
	Format        string
	Timeout       time.Duration
	TempDirectory string
	AutoInstall   bool
}

type CaptionsConfig struct {
	Order []string
}

type StorageConfig struct {
	Driver        string
	DSN           string
	MongoURI      string
	MongoDatabase string
	MemoryTTL     time.Duration
}

type AIConfig struct {
	Timeout      time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
	APIKey       string
	SharedSecret string
	DefaultModel string
	SystemPrompt string
	Models       map[string]string
}
