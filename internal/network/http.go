package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
)

const (
	LogProxyNotConfigured = "Proxy not configured, using direct connection"
	LogProxyConfigured    = "Proxy configured"
)

// HTTPClient is satisfied by *http.Client and by PacedClient.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

type HTTPClientConfig struct {
	ProxyURL              string
	NoProxy               []string
	Timeout               time.Duration
	DisableKeepAlives     bool
	MaxIdleConns          int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ExpectContinueTimeout time.Duration
	ForceAttemptHTTP2     bool
	Jar                   http.CookieJar
}

func NewDefaultHTTPClientConfig(cfg config.HTTPConfig) HTTPClientConfig {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return HTTPClientConfig{
		ProxyURL:              cfg.GetProxy(),
		NoProxy:               cfg.GetNoProxy(),
		Timeout:               timeout,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

// NewScraperHTTPClientConfig is used for watch pages and caption URLs.
func NewScraperHTTPClientConfig(cfg config.HTTPConfig, jar http.CookieJar) HTTPClientConfig {
	conf := NewDefaultHTTPClientConfig(cfg)
	conf.MaxIdleConns = 20
	conf.IdleConnTimeout = 30 * time.Second
	conf.Jar = jar
	return conf
}

// NewModelHTTPClientConfig leaves the client timeout unset; model calls
// carry their own deadline on the request context.
func NewModelHTTPClientConfig(cfg config.HTTPConfig) HTTPClientConfig {
	conf := NewDefaultHTTPClientConfig(cfg)
	conf.Timeout = 0
	conf.MaxIdleConns = 10
	return conf
}

func SetupHTTPClient(cfg HTTPClientConfig, logger logger.Logger) (*http.Client, error) {
	transport := &http.Transport{
		ForceAttemptHTTP2:     cfg.ForceAttemptHTTP2,
		MaxIdleConns:          cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: cfg.ExpectContinueTimeout,
	}

	if cfg.ProxyURL != "" {
		if err := configureProxy(transport, cfg.ProxyURL, cfg.NoProxy, logger); err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
	} else {
		logger.Info(LogProxyNotConfigured)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
		Jar:       cfg.Jar,
	}, nil
}

func configureProxy(transport *http.Transport, proxyURL string, noProxy []string, l logger.Logger) error {
	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("failed to parse proxy URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "socks5", "socks5h":
		dialContext, err := createSOCKS5ProxyDialer(parsedURL, noProxy)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = dialContext
	case "http", "https":
		transport.Proxy = createProxyFunc(parsedURL, noProxy)
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", parsedURL.Scheme)
	}

	l.WithFields(logger.Fields{
		"proxy":    parsedURL.Redacted(),
		"no_proxy": noProxy,
	}).Info(LogProxyConfigured)
	return nil
}

func createProxyFunc(proxyURL *url.URL, noProxy []string) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		host := req.URL.Hostname()
		for _, exclusion := range noProxy {
			if matchHost(host, exclusion) {
				return nil, nil
			}
		}
		return proxyURL, nil
	}
}

func matchHost(host, pattern string) bool {
	if strings.Contains(pattern, "*") {
		pattern = strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
		matched, _ := regexp.MatchString("^"+pattern+"$", host)
		return matched
	}
	return host == pattern
}

func createSimpleDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
}

func createSOCKS5ProxyDialer(proxyURL *url.URL, noProxy []string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	directDialer := createSimpleDialer()

	proxyDialer, err := proxy.FromURL(proxyURL, directDialer)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		for _, exclusion := range noProxy {
			if matchHost(host, exclusion) {
				return directDialer.DialContext(ctx, network, addr)
			}
		}
		if cd, ok := proxyDialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return proxyDialer.Dial(network, addr)
	}, nil
}
