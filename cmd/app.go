package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/plugtree/internal/config"
	"github.com/zjrosen/plugtree/internal/extensions"
	"github.com/zjrosen/plugtree/internal/flags"
	"github.com/zjrosen/plugtree/internal/infrastructure/sqlite"
	"github.com/zjrosen/plugtree/internal/log"
	"github.com/zjrosen/plugtree/internal/paths"
	plugins "github.com/zjrosen/plugtree/internal/plugins/application"
	"github.com/zjrosen/plugtree/internal/tracing"
)

// application wires the service with its stores for one command run.
type application struct {
	flags    *flags.Registry
	service  *plugins.Service
	loader   *plugins.ManifestLoader
	db       *sqlite.DB
	provider *tracing.Provider
	dirs     []string
}

// openApp builds the service from the loaded configuration. Callers must
// Close the result.
func openApp() (*application, error) {
	a := &application{flags: flags.New(cfg.Flags)}

	provider, err := tracing.NewProvider(tracing.FromConfig(cfg.Tracing))
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	a.provider = provider

	var loaderOpts []plugins.LoaderOption
	if cfg.Cache.Enabled {
		loaderOpts = append(loaderOpts, plugins.WithCacheTTL(cfg.Cache.TTL))
	} else {
		loaderOpts = append(loaderOpts, plugins.WithoutCache())
	}
	a.loader = plugins.NewManifestLoader(loaderOpts...)

	opts := []plugins.ServiceOption{
		plugins.WithLoader(a.loader),
		plugins.WithTracer(provider.Tracer()),
	}
	if a.flags.Enabled(flags.FlagStateDB) {
		db, err := sqlite.NewDB(cfg.State.Path)
		if err != nil {
			_ = provider.Shutdown(context.Background())
			return nil, fmt.Errorf("opening state database: %w", err)
		}
		a.db = db
		opts = append(opts, plugins.WithStore(db.StateRepository()))
	} else {
		opts = append(opts, plugins.WithDisabledSaver(func(names []string) error {
			return config.SaveDisabledPlugins(configPath, names)
		}))
	}
	a.service = plugins.NewService(extensions.NewCatalog(), opts...)

	base := filepath.Dir(configPath)
	a.dirs = paths.ResolvePluginRoots(cfg.ResolvePluginDirs(base))
	return a, nil
}

// load discovers manifests in the plugin directories and loads them.
func (a *application) load(ctx context.Context) error {
	manifests, err := plugins.DiscoverManifests(plugins.OSFS(), a.dirs)
	if err != nil {
		return err
	}
	log.Debug(log.CatPlugin, "Discovered manifests", "count", len(manifests), "dirs", a.dirs)

	var disabled []string
	if a.db == nil {
		disabled = cfg.DisabledPlugins
	}
	_, err = a.service.Load(ctx, manifests, disabled)
	return err
}

// Close releases the service, database and tracer.
func (a *application) Close() error {
	a.service.Close()
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs, a.provider.Shutdown(context.Background()))
	return errors.Join(errs...)
}

// withApp opens the application, loads every plugin and runs fn.
func withApp(ctx context.Context, fn func(*application) error) (err error) {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := a.load(ctx); err != nil {
		return err
	}
	return fn(a)
}
