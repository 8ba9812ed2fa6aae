package di

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/muratoffalex/ytscribe/internal/ai"
	"github.com/muratoffalex/ytscribe/internal/cache"
	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/database"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/network"
	"github.com/muratoffalex/ytscribe/internal/server"
	"github.com/muratoffalex/ytscribe/internal/service/captions"
	"github.com/muratoffalex/ytscribe/internal/service/transcript"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

type Container struct {
	Logger       logger.Logger
	Cfg          *config.Config
	Cache        cache.Cache
	HttpClient   *http.Client
	Resolver     *youtube.Resolver
	Orchestrator *captions.Orchestrator
	AI           *ai.Client
	Transcripts  *transcript.Service
	Server       *server.Server
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logCfg := cfg.Log()
	l := logger.NewLogrusLogger(&logCfg)

	container := &Container{
		Logger: l,
		Cfg:    cfg,
	}

	httpClient, err := network.SetupHTTPClient(network.NewDefaultHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		return nil, err
	}
	container.HttpClient = httpClient

	scraperClient, err := newScraperClient(cfg, l)
	if err != nil {
		return nil, err
	}
	ytCfg := cfg.YouTube()
	paced := network.NewPacedClient(scraperClient, ytCfg.RequestsPerSecond, ytCfg.Burst)

	modelClient, err := network.SetupHTTPClient(network.NewModelHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		return nil, err
	}

	store, err := newCache(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	container.Cache = store
	l.WithField("driver", cfg.Storage().Driver).Info("Cache initialized")

	container.Resolver = youtube.NewResolver(paced, l)

	ytdlpExecutable := resolveYtdlp(ctx, cfg, l)
	sources, err := newSources(cfg, container.Resolver, ytdlpExecutable, scraperClient, paced, l)
	if err != nil {
		store.Close()
		return nil, err
	}
	container.Orchestrator = captions.NewOrchestrator(l, sources...)
	l.WithField("sources", container.Orchestrator.Sources()).Info("Caption sources registered")

	aiCfg := cfg.AI()
	registry := ai.NewModelRegistry(aiCfg.Models, aiCfg.DefaultModel)
	container.AI = ai.NewClient(aiCfg, registry, modelClient, l)
	if len(registry.Models()) == 0 {
		l.Warn("No model endpoints configured, summary endpoints will reject requests")
	} else {
		l.WithFields(logger.Fields{
			"models":  registry.Models(),
			"default": registry.DefaultModel(),
		}).Info("Model endpoints registered")
	}

	container.Transcripts = transcript.NewService(
		container.Resolver,
		container.Orchestrator,
		store,
		container.AI,
		l,
		transcript.WithPreferredLanguage(ytCfg.DefaultLanguage),
	)

	subCfg := cfg.Subtitles()
	srvCfg := cfg.Server()
	tools := server.NewToolChecker(ytdlpExecutable, subCfg.JSRuntime, ytCfg.CookieFile)
	container.Server = server.New(container.Transcripts, container.Orchestrator, tools, server.Options{
		Region: srvCfg.RegionName(),
		Debug:  srvCfg.Debug,
	}, l)

	return container, nil
}

// newScraperClient seeds a cookie jar when the cookie file is present.
// A missing file is not fatal; the watch page works anonymously for most videos.
func newScraperClient(cfg *config.Config, l logger.Logger) (*http.Client, error) {
	var jar http.CookieJar
	cookieFile := cfg.YouTube().CookieFile
	if cookieFile != "" {
		cookies, err := network.LoadNetscapeCookies(cookieFile)
		switch {
		case err == nil:
			j, err := network.NewCookieJar(cookies)
			if err != nil {
				return nil, err
			}
			jar = j
			l.WithFields(logger.Fields{
				"path":    cookieFile,
				"cookies": len(cookies),
			}).Info("Cookies loaded")
		default:
			l.WithError(err).WithField("path", cookieFile).Warn("Cookies not loaded")
		}
	}
	return network.SetupHTTPClient(network.NewScraperHTTPClientConfig(cfg.HTTP(), jar), l)
}

func newCache(ctx context.Context, cfg *config.Config, l logger.Logger) (cache.Cache, error) {
	storage := cfg.Storage()

	switch storage.Driver {
	case config.StorageSQLite:
		db, err := database.NewSQLiteDB(ctx, cfg.SQLiteDSN(), l)
		if err != nil {
			return nil, err
		}
		return cache.NewMultiLevelCache(cache.NewMemoryCache(storage.MemoryTTL), cache.NewDBCache(db), l), nil
	case config.StorageMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		mongoCache, err := cache.NewMongoCache(connectCtx, storage.MongoURI, storage.MongoDatabase, l)
		if err != nil {
			return nil, err
		}
		return cache.NewMultiLevelCache(cache.NewMemoryCache(storage.MemoryTTL), mongoCache, l), nil
	case config.StorageMemory:
		return cache.NewMemoryCache(storage.MemoryTTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStorageDriver, storage.Driver)
	}
}

// resolveYtdlp returns the yt-dlp executable the subprocess source and the
// tool check share: the configured one, a freshly installed managed binary,
// or "" to rely on PATH.
func resolveYtdlp(ctx context.Context, cfg *config.Config, l logger.Logger) string {
	subCfg := cfg.Subtitles()
	if subCfg.Executable != "" || !subCfg.AutoInstall || !slices.Contains(cfg.Captions().Order, config.SourceYtdlp) {
		return subCfg.Executable
	}
	installCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	path, err := captions.InstallYtdlp(installCtx, l)
	if err != nil {
		l.WithError(err).Warn("yt-dlp install failed, relying on PATH")
		return ""
	}
	return path
}

func newSources(
	cfg *config.Config,
	resolver youtube.MetadataResolver,
	ytdlpExecutable string,
	scraperClient *http.Client,
	paced network.HTTPClient,
	l logger.Logger,
) ([]captions.Source, error) {
	subCfg := cfg.Subtitles()
	sources := make([]captions.Source, 0, len(cfg.Captions().Order))

	for _, name := range cfg.Captions().Order {
		switch name {
		case config.SourceLibrary:
			sources = append(sources, captions.NewLibrarySource(scraperClient, l))
		case config.SourceYtdlp:
			sources = append(sources, captions.NewYtdlpSource(
				captions.NewYtdlpRunner(ytdlpExecutable),
				captions.YtdlpOptions{
					CookieFile:    cfg.YouTube().CookieFile,
					JSRuntime:     subCfg.JSRuntime,
					Format:        subCfg.Format,
					Timeout:       subCfg.Timeout,
					TempDirectory: subCfg.TempDirectory,
					Debug:         cfg.Log().IsDebug(),
				},
				l,
			))
		case config.SourceScrape:
			sources = append(sources, captions.NewScrapeSource(resolver, paced, l))
		default:
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownCaptionSource, name)
		}
	}
	return sources, nil
}
