package store

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open returns the backend named by opts.Driver. An empty driver means the file store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverFile:
		return OpenFile(opts.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", opts.Driver)
	}
}
