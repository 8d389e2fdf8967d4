package app

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Config holds everything an App needs for one run.
type Config struct {
	// ConfigPath locates the config file. Empty means probe the working
	// directory for the default names.
	ConfigPath string

	// JobName selects a single job and its dependencies. Empty runs all
	// jobs in declaration order.
	JobName string

	DryRun    bool
	CheckOnly bool
	Parallel  bool

	LogLevel  string
	LogFormat string

	// HealthcheckPort enables the liveness endpoint when positive.
	HealthcheckPort int
}

// App is the root application object.
type App struct {
	logger     *slog.Logger
	outW       io.Writer
	cfg        *Config
	httpServer *http.Server
}

// NewApp constructs an application instance. Logs go to logW, job output
// (step echo, messages, inherited command output) goes to outW. Every run
// gets its own run_id so interleaved logs stay attributable.
func NewApp(logW, outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW).With("run_id", uuid.NewString())
	return &App{
		logger: logger,
		outW:   outW,
		cfg:    cfg,
	}
}
