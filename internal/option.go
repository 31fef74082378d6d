package internal

import (
	"io"

	"github.com/starford/ansuz/internal/store"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	gateway store.Gateway
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGateway overrides the store gateway selected by config.
func WithGateway(gw store.Gateway) Option {
	return func(a *application) {
		a.gateway = gw
	}
}

// WithLogOutput sets where the JSON logger writes. Defaults to stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
