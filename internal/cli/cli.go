// Package cli implements the skilltree command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/skilltreelabs/skilltree/pkg/buildinfo"
	"github.com/skilltreelabs/skilltree/pkg/cache"
	"github.com/skilltreelabs/skilltree/pkg/client"
	"github.com/skilltreelabs/skilltree/pkg/config"
	"github.com/skilltreelabs/skilltree/pkg/focus"
	"github.com/skilltreelabs/skilltree/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "skilltree"

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

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "skilltree",
		Short:        "Skilltree navigates knowledge graphs as focusable canvases",
		Long:         `Skilltree is an interactive canvas for hierarchical knowledge graphs: drill into groups, follow prerequisite chains, and serve or export scope snapshots.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configured file, or the defaults when none is given.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// =============================================================================
// Backend Factories
// =============================================================================

// newStore builds the dataset backend selected by the config. The memory
// backend always starts from the built-in seed.
func (c *CLI) newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		return store.NewMongoFromURI(cfg.Store.MongoURI, cfg.Store.MongoDatabase, c.Logger)
	default:
		return store.NewMemory(store.MemoryOptions{Seed: true, Logger: c.Logger}), nil
	}
}

// newCache builds the snapshot cache selected by the config.
func (c *CLI) newCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheFile:
		return cache.NewFileCache(cfg.Cache.Dir)
	case config.CacheRedis:
		return cache.NewRedisFromAddr(cfg.Cache.RedisAddr)
	default:
		return cache.NewNullCache(), nil
	}
}

// newFetcher builds the engine's scope source: the remote gateway when one
// is configured via --remote, otherwise an in-process seeded store.
func (c *CLI) newFetcher(cfg *config.Config, remote bool) (focus.Fetcher, error) {
	if !remote {
		return store.Fetcher{Store: store.NewMemory(store.MemoryOptions{Seed: true, Logger: c.Logger})}, nil
	}
	snapCache, err := c.newClientCache(cfg)
	if err != nil {
		return nil, err
	}
	return client.New(client.Options{
		BaseURL:  cfg.Client.BaseURL,
		Cache:    snapCache,
		CacheTTL: cfg.Cache.TTL.Std(),
		Retries:  cfg.Client.Retries,
		Logger:   c.Logger,
	})
}

// newClientCache prefers the configured backend and falls back to a file
// cache under the user cache dir, so remote viewing caches snapshots even
// with no cache section in the config.
func (c *CLI) newClientCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.Cache.Backend != config.CacheNone {
		return c.newCache(cfg)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newClient builds a gateway client for admin commands.
func (c *CLI) newClient(cfg *config.Config) (*client.Client, error) {
	return client.New(client.Options{
		BaseURL: cfg.Client.BaseURL,
		Retries: cfg.Client.Retries,
		Logger:  c.Logger,
	})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/skilltree/).
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
