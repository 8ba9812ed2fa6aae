package server

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/service/transcript"
)

// TranscriptService is implemented by *transcript.Service.
type TranscriptService interface {
	Simple(ctx context.Context, rawURL, lang string) (*transcript.SimpleResult, error)
	SimpleCached(ctx context.Context, rawURL, lang string) (*transcript.SimpleResult, error)
	Smart(ctx context.Context, rawURL, lang string, extended bool) (*transcript.Record, bool, error)
	Full(ctx context.Context, rawURL string) (*transcript.FullResult, error)
	Captions(ctx context.Context, videoID, lang string) (*transcript.CaptionsResult, error)
	Summarize(ctx context.Context, rawURL, model string) (*transcript.SummaryRecord, bool, error)
}

// SourceStats is implemented by *captions.Orchestrator.
type SourceStats interface {
	Sources() []string
	Stats() map[string]int64
}

type Options struct {
	Region       string
	Debug        bool
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	app      *fiber.App
	service  TranscriptService
	sources  SourceStats
	tools    *ToolChecker
	validate *validator.Validate
	opts     Options
	logger   logger.Logger
}

func New(service TranscriptService, sources SourceStats, tools *ToolChecker, opts Options, l logger.Logger) *Server {
	log := l.WithField("component", "server")
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = 1 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:               "ytscribe",
		DisableStartupMessage: true,
		BodyLimit:             opts.BodyLimit,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		ErrorHandler:          newErrorHandler(log),
	})

	s := &Server{
		app:      app,
		service:  service,
		sources:  sources,
		tools:    tools,
		validate: newValidator(),
		opts:     opts,
		logger:   log,
	}

	app.Use(RequestLogger(log))
	app.Use(recover.New(recover.Config{EnableStackTrace: opts.Debug}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/health/tools", s.healthTools)
	s.app.Get("/debug", s.debug)

	s.app.Post("/transcript", s.fullTranscript)

	s.app.Post("/simple-transcript", s.simpleTranscript(false))
	s.app.Post("/simple-transcript-v2", s.simpleTranscript(true))
	s.app.Post("/simple-transcript-v3", s.simpleTranscriptCached)

	s.app.Post("/smart-transcript", s.smartTranscript(false))
	s.app.Post("/smart-transcript-v2", s.smartTranscript(true))

	s.app.Post("/smart-summary", s.smartSummary(summaryText))
	s.app.Post("/smart-summary-firebase", s.smartSummary(summaryText))
	s.app.Post("/smart-summary-firebase-v2", s.smartSummary(summaryWithTags))
	s.app.Post("/smart-summary-firebase-v3", s.smartSummary(summaryRecord))

	s.app.Get("/api/transcript", s.captions)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.WithField("address", addr).Info("HTTP server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
