// Package application provides the application interface for geomanifest
// commands.
//
// Commands accept the Application interface rather than the concrete App
// type so they can be exercised with a Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(opts ...geomanifest.Option) (geomanifest.Client, error) {
//	        return geomanifest.New(append(opts, geomanifest.WithProjectsDir(dir))...)
//	    },
//	}
//	cmd := resolve.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/geomanifest"
)

// Application provides the dependencies that commands need. The App struct
// from cmd/geomanifest/app implements it.
type Application interface {
	// Client returns a pipeline client configured from the application
	// config. Extra options are applied last and override the config.
	Client(opts ...geomanifest.Option) (geomanifest.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
