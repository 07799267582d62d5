// Package app provides the application context and dependency management
// for the geomanifest CLI: configuration, logging and pipeline clients.
package app

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/geomanifest"
	"github.com/agentstation/geomanifest/internal/cmd/application"
	"github.com/agentstation/geomanifest/internal/config"
	"github.com/agentstation/geomanifest/pkg/errors"
	"github.com/agentstation/geomanifest/pkg/vocab"
)

// App represents the geomanifest application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *config.Config
	logger *zerolog.Logger

	// out receives command output; nil means stdout
	out io.Writer
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	cfg, err := config.Load("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = cfg

	logger := NewLogger(cfg)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Client creates a pipeline client from the application configuration.
// opts are applied after the configured ones.
func (a *App) Client(opts ...geomanifest.Option) (geomanifest.Client, error) {
	base, err := a.clientOptions()
	if err != nil {
		return nil, err
	}
	client, err := geomanifest.New(append(base, opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	return client, nil
}

// Shutdown performs graceful shutdown of the application. Ingestion runs
// hold no background work, so there is nothing to stop.
func (a *App) Shutdown(context.Context) error {
	return nil
}

func (a *App) clientOptions() ([]geomanifest.Option, error) {
	opts := []geomanifest.Option{
		geomanifest.WithProjectsDir(a.config.ProjectsDir),
		geomanifest.WithLargeLayerThreshold(a.config.LargeLayerThreshold),
		geomanifest.WithTopValuesLimit(a.config.TopValuesLimit),
		geomanifest.WithMaxLayerJSONBytes(a.config.MaxLayerJSONBytes),
		geomanifest.WithLogger(a.logger),
	}

	if a.config.VocabularyFile != "" {
		data, err := os.ReadFile(a.config.VocabularyFile)
		if err != nil {
			return nil, errors.WrapIO("read", a.config.VocabularyFile, err)
		}
		v, err := vocab.Load(data)
		if err != nil {
			return nil, err
		}
		opts = append(opts, geomanifest.WithVocabulary(v))
	}
	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.config = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}
