package captions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/network"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

const SourceYtdlp = "ytdlp"

var ErrToolFailed = errors.New("subtitle tool failed")

// noSubtitleMarkers are the tool messages meaning the video simply has no
// captions in the requested language.
var noSubtitleMarkers = []string{
	"there are no subtitles",
	"no subtitles for the requested languages",
	"has no automatic captions",
	"has no subtitles",
}

// SubtitleRequest is one subprocess invocation. Dir is request-scoped.
type SubtitleRequest struct {
	VideoID    string
	Language   string
	Dir        string
	CookieFile string
	JSRuntime  string
	Format     string
}

// SubtitleRunner runs the external tool. It returns the tool's diagnostic output.
type SubtitleRunner interface {
	Run(ctx context.Context, req SubtitleRequest) (string, error)
}

type YtdlpOptions struct {
	CookieFile    string
	JSRuntime     string
	Format        string
	Timeout       time.Duration
	TempDirectory string
	Debug         bool
}

// YtdlpSource downloads auto captions with yt-dlp into a scratch directory.
type YtdlpSource struct {
	runner SubtitleRunner
	opts   YtdlpOptions
	logger logger.Logger
}

func NewYtdlpSource(runner SubtitleRunner, opts YtdlpOptions, l logger.Logger) *YtdlpSource {
	if opts.Format == "" {
		opts.Format = "json3/vtt"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	return &YtdlpSource{
		runner: runner,
		opts:   opts,
		logger: l.WithField("source", SourceYtdlp),
	}
}

func (s *YtdlpSource) Name() string {
	return SourceYtdlp
}

func (s *YtdlpSource) Fetch(ctx context.Context, videoID, lang string) ([]CaptionLine, error) {
	log := s.logger.WithFields(logger.Fields{
		"video_id": videoID,
		"lang":     lang,
	})

	if s.opts.CookieFile != "" && !network.CookieFileReadable(s.opts.CookieFile) {
		err := fmt.Errorf("%w: %s", network.ErrCookieFileMissing, s.opts.CookieFile)
		log.WithError(err).Warn("Subtitle tool misconfigured")
		return nil, transient(SourceYtdlp, 0, err)
	}

	dir, err := os.MkdirTemp(s.opts.TempDirectory, "ytscribe-subs-*")
	if err != nil {
		return nil, transient(SourceYtdlp, 0, fmt.Errorf("create scratch dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warn("Failed to remove scratch dir")
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	stderr, runErr := s.runner.Run(runCtx, SubtitleRequest{
		VideoID:    videoID,
		Language:   lang,
		Dir:        dir,
		CookieFile: s.opts.CookieFile,
		JSRuntime:  s.opts.JSRuntime,
		Format:     s.opts.Format,
	})

	lines, found, parseErr := readSubtitleFiles(dir)
	if found {
		if parseErr != nil {
			return nil, transient(SourceYtdlp, 0, parseErr)
		}
		if len(lines) == 0 {
			return nil, notAvailable(SourceYtdlp, ErrNoCaptionsAvailable)
		}
		return lines, nil
	}

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			runErr = fmt.Errorf("timed out after %s: %w", s.opts.Timeout, runErr)
		}
		if mentionsNoSubtitles(stderr) {
			return nil, notAvailable(SourceYtdlp, ErrNoCaptionsAvailable)
		}
		entry := log.WithError(runErr).WithField("stderr", lastLines(stderr, 5))
		if s.opts.Debug {
			entry = entry.WithField("stderr_full", stderr)
		}
		entry.Warn("Subtitle tool exited with an error")
		return nil, transient(SourceYtdlp, 0, errors.Join(ErrToolFailed, runErr))
	}

	log.WithField("stderr", lastLines(stderr, 3)).Debug("Subtitle tool produced no files")
	return nil, notAvailable(SourceYtdlp, ErrNoCaptionsAvailable)
}

// readSubtitleFiles prefers json3 output and falls back to vtt.
func readSubtitleFiles(dir string) ([]CaptionLine, bool, error) {
	if files, _ := filepath.Glob(filepath.Join(dir, "*.json3")); len(files) > 0 {
		slices.Sort(files)
		data, err := os.ReadFile(files[0])
		if err != nil {
			return nil, true, err
		}
		lines, err := ParseJSON3(data)
		if err != nil {
			return nil, true, fmt.Errorf("parse json3: %w", err)
		}
		return lines, true, nil
	}

	if files, _ := filepath.Glob(filepath.Join(dir, "*.vtt")); len(files) > 0 {
		slices.Sort(files)
		data, err := os.ReadFile(files[0])
		if err != nil {
			return nil, true, err
		}
		return ParseVTT(data), true, nil
	}

	return nil, false, nil
}

func mentionsNoSubtitles(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range noSubtitleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// YtdlpRunner invokes yt-dlp through go-ytdlp.
type YtdlpRunner struct {
	executable string
}

func NewYtdlpRunner(executable string) *YtdlpRunner {
	return &YtdlpRunner{executable: executable}
}

func (r *YtdlpRunner) Run(ctx context.Context, req SubtitleRequest) (string, error) {
	dl := ytdlp.New().
		SkipDownload().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(req.Language).
		SubFormat(req.Format).
		NoPlaylist().
		Output(filepath.Join(req.Dir, "%(id)s.%(ext)s"))

	if r.executable != "" {
		dl = dl.SetExecutable(r.executable)
	}
	if req.CookieFile != "" {
		dl = dl.Cookies(req.CookieFile)
	}
	if req.JSRuntime != "" {
		// passed through a config file so older wrappers without the flag still work
		confPath := filepath.Join(req.Dir, "yt-dlp.conf")
		if err := os.WriteFile(confPath, []byte("--js-runtimes "+req.JSRuntime+"\n"), 0o600); err != nil {
			return "", err
		}
		dl = dl.ConfigLocations(confPath)
	}

	res, err := dl.Run(ctx, youtube.WatchURL(req.VideoID))
	if res != nil {
		return res.Stderr, err
	}
	return "", err
}

// InstallYtdlp downloads a managed yt-dlp binary when none is on PATH and
// returns the path of the executable to run.
func InstallYtdlp(ctx context.Context, l logger.Logger) (string, error) {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return "", err
	}
	l.WithFields(logger.Fields{
		"path":    resolved.Executable,
		"version": resolved.Version,
	}).Info("yt-dlp ready")
	return resolved.Executable, nil
}
