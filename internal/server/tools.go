package server

import (
	"os/exec"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/muratoffalex/ytscribe/internal/network"
)

// ToolChecker reports whether the subtitle tool and its dependencies are
// usable on this host.
type ToolChecker struct {
	ytdlp      string
	jsRuntime  string
	cookieFile string
	lookPath   func(string) (string, error)
	readable   func(string) bool
}

type ToolStatus struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

type CookieStatus struct {
	Readable bool   `json:"readable"`
	Path     string `json:"path"`
}

type ToolsReport struct {
	Ytdlp     ToolStatus   `json:"ytdlp"`
	JSRuntime ToolStatus   `json:"jsRuntime"`
	Cookies   CookieStatus `json:"cookies"`
}

func (r ToolsReport) Healthy() bool {
	return r.Ytdlp.Available && r.JSRuntime.Available && r.Cookies.Readable
}

func NewToolChecker(ytdlpExecutable, jsRuntime, cookieFile string) *ToolChecker {
	if ytdlpExecutable == "" {
		ytdlpExecutable = "yt-dlp"
	}
	return &ToolChecker{
		ytdlp:      ytdlpExecutable,
		jsRuntime:  jsRuntime,
		cookieFile: cookieFile,
		lookPath:   exec.LookPath,
		readable:   network.CookieFileReadable,
	}
}

func (t *ToolChecker) Check() ToolsReport {
	return ToolsReport{
		Ytdlp:     t.tool(t.ytdlp),
		JSRuntime: t.runtime(t.jsRuntime),
		Cookies: CookieStatus{
			Readable: t.cookieFile != "" && t.readable(t.cookieFile),
			Path:     t.cookieFile,
		},
	}
}

// runtime accepts the yt-dlp --js-runtimes form, NAME or NAME:PATH.
func (t *ToolChecker) runtime(spec string) ToolStatus {
	name, path, _ := strings.Cut(spec, ":")
	if path != "" {
		return t.tool(path)
	}
	return t.tool(name)
}

// tool resolves a bare name through PATH; a name containing a path
// separator is checked in place.
func (t *ToolChecker) tool(name string) ToolStatus {
	if name == "" {
		return ToolStatus{}
	}
	path, err := t.lookPath(name)
	if err != nil {
		return ToolStatus{Path: name}
	}
	return ToolStatus{Available: true, Path: path}
}

func (s *Server) healthTools(c *fiber.Ctx) error {
	report := s.tools.Check()
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
