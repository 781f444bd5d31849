package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-bindctl/internal/bind/common/clock"
	"github.com/haukened/rr-bindctl/internal/bind/common/log"
	"github.com/haukened/rr-bindctl/internal/bind/config"
	"github.com/haukened/rr-bindctl/internal/bind/repos/credcache"
	"github.com/haukened/rr-bindctl/internal/bind/repos/zonestore"
	"github.com/haukened/rr-bindctl/internal/bind/services/credentials"
	"github.com/haukened/rr-bindctl/internal/bind/services/zones"
)

const (
	version = "0.1.0-dev"
	appName = "rr-bindctl"
)

// Application holds what the commands share: settings, streams and the
// factories for the pieces that touch disk.
type Application struct {
	config *config.AppConfig
	logger log.Logger
	clock  clock.Clock

	In  io.Reader
	Out io.Writer

	// resolutions is shared by every command run on this Application.
	resolutions credcache.Cache
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	app := &Application{
		config: cfg,
		logger: log.GetLogger(),
		clock:  clock.RealClock{},
		In:     os.Stdin,
		Out:    os.Stdout,
	}
	if err := NewRootCommand(app).Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:          appName,
		Short:        "Inspect rndc credentials and rewrite BIND zone blocks",
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetIn(app.In)
	cmd.SetOut(app.Out)

	cmd.AddCommand(NewConfCommand(app))
	cmd.AddCommand(NewZoneCommand(app))
	return cmd
}

// resolver returns the rndc.conf resolution cache, creating it on first use.
func (a *Application) resolver() (credcache.Cache, error) {
	if a.resolutions == nil {
		cache, err := credcache.New(a.config.CacheSize, nil)
		if err != nil {
			return nil, err
		}
		a.resolutions = cache
	}
	return a.resolutions, nil
}

func (a *Application) credentialLoader() (*credentials.Loader, error) {
	cache, err := a.resolver()
	if err != nil {
		return nil, err
	}
	return credentials.NewLoader(credentials.LoaderOptions{
		Candidates:        a.config.RndcConf,
		Resolver:          cache,
		Logger:            a.named("credentials"),
		ExpectedAlgorithm: a.config.DefaultAlgorithm,
	}), nil
}

// openStore opens the history database. The caller closes it.
func (a *Application) openStore() (*zonestore.Store, error) {
	st, err := zonestore.Open(a.config.StorePath, a.clock)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return st, nil
}

func (a *Application) zoneManager(store zones.Store) *zones.Manager {
	return zones.NewManager(zones.ManagerOptions{Store: store, Logger: a.named("zones")})
}

func (a *Application) named(component string) log.Logger {
	return a.logger.With(map[string]any{"component": component})
}
