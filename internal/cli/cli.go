// Package cli implements the joist command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/joist-el/joist/pkg/buildinfo"
	"github.com/joist-el/joist/pkg/config"
	"github.com/joist-el/joist/pkg/execx"
	"github.com/joist-el/joist/pkg/httputil"
	"github.com/joist-el/joist/pkg/orchestrate"
	"github.com/joist-el/joist/pkg/provider"
	"github.com/joist-el/joist/pkg/recipe"
	"github.com/joist-el/joist/pkg/scan"
)

const (
	// appName is the application name used for directories and display.
	appName = "joist"

	// hostPackage is the dependency name denoting the host runtime.
	hostPackage = "emacs"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	storeFlag  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "joist",
		Short:        "Joist installs packages straight from their source repositories",
		Long:         `Joist resolves declarative package recipes, clones each package's source repository with git, and installs the full dependency closure concurrently.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/joist/config.toml)")
	root.PersistentFlags().StringVar(&c.storeFlag, "store", "", "package store directory (overrides config)")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.recipeCommand())
	root.AddCommand(c.fetchWorkerCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration once per invocation, applying flag
// overrides on top.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.storeFlag != "" {
		cfg.Store = c.storeFlag
	}
	c.Config = cfg
	return nil
}

// store returns the expanded package store directory, creating it when
// absent.
func (c *CLI) store() (string, error) {
	dir, err := c.Config.StorePath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// newRegistry builds the ordered provider registry from the configured
// provider list. HTTP providers share a file cache under the cache
// directory.
func (c *CLI) newRegistry() (*provider.Registry, error) {
	var providers []provider.Provider
	for _, pc := range c.Config.Providers {
		switch pc.Type {
		case "file":
			path, err := config.ExpandHome(pc.Path)
			if err != nil {
				return nil, err
			}
			providers = append(providers, provider.NewFileProvider(pc.Name, path))
		case "http":
			dir, err := cacheDir()
			if err != nil {
				return nil, err
			}
			cache, err := httputil.NewCache(dir, pc.TTL.Std())
			if err != nil {
				return nil, err
			}
			providers = append(providers, provider.NewHTTPProvider(pc.Name, pc.URL, cache))
		}
	}
	return provider.NewRegistry(c.Logger, providers...), nil
}

// newResolver builds the recipe resolver with the configured built-in
// hooks: the default-protocol order hook and the pins recipe hook.
func (c *CLI) newResolver(registry *provider.Registry) *recipe.Resolver {
	r := recipe.NewResolver(registry, c.Logger)
	r.OrderHooks = append(r.OrderHooks, recipe.DefaultProtocolHook{Protocol: c.Config.Protocol})
	if len(c.Config.Pins) > 0 {
		r.RecipeHooks = append(r.RecipeHooks, recipe.PinHook{Pins: c.Config.Pins})
	}
	return r
}

// newOrchestrator wires the full install pipeline: provider registry,
// resolver, subprocess worker, dependency scanner, and host version.
func (c *CLI) newOrchestrator(cmd *cobra.Command) (*orchestrate.Orchestrator, error) {
	store, err := c.store()
	if err != nil {
		return nil, err
	}
	registry, err := c.newRegistry()
	if err != nil {
		return nil, err
	}
	runner := execx.NewLocal()

	worker, err := orchestrate.NewSubprocessWorker(store,
		[]string{"fetch-worker", "--store", store}, runner, c.Logger)
	if err != nil {
		return nil, err
	}
	worker.Timeout = c.Config.Timeout.Std()

	o := orchestrate.New(c.newResolver(registry), worker, scan.NewScanner(store, c.Logger), c.Logger)
	o.HostName = hostPackage
	o.HostVersion = c.hostVersion(cmd)
	o.Ignore = c.Config.IgnoreSet()
	return o, nil
}

// hostVersion resolves the runtime version from config, falling back to
// asking the binary itself.
func (c *CLI) hostVersion(cmd *cobra.Command) *semver.Version {
	if c.Config.EmacsVersion != "" {
		v, err := semver.NewVersion(c.Config.EmacsVersion)
		if err != nil {
			c.Logger.Warn("invalid configured emacs-version", "value", c.Config.EmacsVersion, "error", err)
			return nil
		}
		return v
	}
	return orchestrate.DetectHostVersion(cmd.Context(), execx.NewLocal(), c.Config.Emacs)
}

// cacheDir returns the cache directory using the XDG standard
// (~/.cache/joist/).
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
