package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/plugtree/internal/flags"
	"github.com/zjrosen/plugtree/internal/log"
	"github.com/zjrosen/plugtree/internal/paths"
	plugins "github.com/zjrosen/plugtree/internal/plugins/application"
	"github.com/zjrosen/plugtree/internal/presentation"
	"github.com/zjrosen/plugtree/internal/pubsub"
	"github.com/zjrosen/plugtree/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload plugins when their manifests change",
	Long: `Watch the plugin directories and reload every plugin when a plugin.yaml
is created, changed or removed. The tree is printed after each reload; with
the watch-diff flag only the changed lines are printed.

With --debug the log is streamed to stderr as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withApp(ctx, func(a *application) error {
			return runWatch(ctx, a, cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

func runWatch(ctx context.Context, a *application, out, errOut io.Writer) error {
	w, err := watcher.New(watcher.Config{
		Dirs:         a.dirs,
		ManifestName: paths.ManifestName,
		DebounceDur:  cfg.Watch.Debounce,
	})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	if logs := log.NewListener(ctx); logs != nil {
		go logs.Each(func(e log.LogEvent) bool {
			_, _ = fmt.Fprint(errOut, e.Payload)
			return true
		})
	}

	diffOnly := a.flags.Enabled(flags.FlagWatchDiff)
	reloads := a.service.Subscribe(ctx, pubsub.WithTypes(pubsub.ReloadedEvent))

	prev := renderRoot(a.service, diffOnly)
	_, _ = fmt.Fprintln(out, prev)

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			log.Info(log.CatWatcher, "Manifests changed", "paths", change.Paths)
			if err := a.load(ctx); err != nil {
				_, _ = fmt.Fprintf(errOut, "reload failed: %v\n", err)
			}
			stats := a.loader.CacheStats()
			log.Debug(log.CatCache, "Manifest cache", "hits", stats.Hits, "misses", stats.Misses, "items", stats.Items)
		case ev, ok := <-reloads:
			if !ok {
				return nil
			}
			next := renderRoot(a.service, diffOnly)
			switch {
			case !diffOnly:
				_, _ = fmt.Fprintln(out, next)
			case next != prev:
				_, _ = fmt.Fprint(out, presentation.DiffLines(prev, next))
			}
			prev = next
			_, _ = fmt.Fprintf(out, "reloaded (run %s): %d diagnostics\n", ev.Payload.RunID, len(a.service.Diagnostics()))
		}
	}
}

func renderRoot(svc *plugins.Service, plain bool) string {
	snap, err := svc.Tree().Snapshot("/")
	if err != nil {
		return ""
	}
	return presentation.RenderTree(snap, plain)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
