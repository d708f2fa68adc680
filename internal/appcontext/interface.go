// Package appcontext provides the shared application context interface
// used by all commands.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/venuemap"
	"github.com/agentstation/venuemap/internal/auth"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/venuemap/app implements it; commands accept the
// interface so tests can pass a Mock.
type Interface interface {
	// VenueMap returns the default client, creating it lazily if needed.
	VenueMap() (venuemap.Client, error)

	// Auth returns the operator authentication checker.
	Auth() *auth.Checker

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, markdown).
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
