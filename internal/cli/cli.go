package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/changeover/pkg/cache"
	"github.com/matzehuels/changeover/pkg/pipeline"
	"github.com/matzehuels/changeover/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "changeover"

	// Output formats accepted by optimize --format.
	formatCSV  = "csv"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPDF  = "pdf"
	formatPNG  = "png"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config Config

	// configPath is bound to the --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. With useCache false the
// runner never touches a cache, whatever the config says.
func (c *CLI) newRunner(ctx context.Context, useCache bool) (*pipeline.Runner, error) {
	backend := c.Config.Cache.Backend
	if !useCache {
		backend = cacheNone
	}
	ch, err := newCache(ctx, backend, c.Config.Cache.RedisAddr)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if backend == cacheRedis {
		// Redis may be shared with other services.
		keyer = cache.NewScopedKeyer(keyer, appName+":")
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func newCache(ctx context.Context, backend, redisAddr string) (cache.Cache, error) {
	switch backend {
	case cacheNone, "":
		return cache.NewNullCache(), nil
	case cacheFile:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	case cacheRedis:
		return cache.NewRedisCache(ctx, redisAddr)
	}
	return nil, fmt.Errorf("unknown cache backend %q (must be one of: none, file, redis)", backend)
}

// newStore opens the run history: MongoDB when a URI is configured,
// otherwise the file store under the config directory.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if uri := c.Config.Store.MongoURI; uri != "" {
		return store.NewMongo(ctx, store.MongoConfig{
			URI:      uri,
			Database: c.Config.Store.Database,
		})
	}
	dir := c.Config.Store.Dir
	if dir == "" {
		if base, err := configDir(); err == nil {
			dir = filepath.Join(base, "runs")
		}
	}
	return store.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/changeover/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/changeover/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) ([]string, error) {
	if s == "" {
		return []string{formatCSV}, nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case formatCSV, formatJSON, formatDOT, formatSVG, formatPDF, formatPNG:
			formats = append(formats, f)
		case "":
		default:
			return nil, fmt.Errorf("unknown format %q (must be one of: csv, json, dot, svg, pdf, png)", f)
		}
	}
	return formats, nil
}

// outputPath returns the path for format given the -o value. With a single
// format the base is used as given; otherwise the format's extension
// replaces any extension on base.
func outputPath(base, format string, multi bool) string {
	if base == "" {
		base = "sequence"
	}
	if !multi && filepath.Ext(base) != "" {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
}
