package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/treefix50/primeshelf/internal/pages"
	"github.com/treefix50/primeshelf/internal/printer"
	"github.com/treefix50/primeshelf/internal/shelf"
)

var (
	renderPage       string
	renderClient     string
	renderMore       int
	renderLoggedIn   bool
	renderSubscribed bool
	renderWait       time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the rows of a page as a viewer would see them",
	Long: `Print the visible rows of a page after their playlists resolve.

Examples:
  primeshelf render --page home
  primeshelf render --page home --client tv-1 --more 2 --logged-in`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderPage, "page", "home", "Page id")
	renderCmd.Flags().StringVar(&renderClient, "client", "", "Client id for personal rows")
	renderCmd.Flags().IntVar(&renderMore, "more", 0, "Number of extra row batches to disclose")
	renderCmd.Flags().BoolVar(&renderLoggedIn, "logged-in", false, "Render for a logged in viewer")
	renderCmd.Flags().BoolVar(&renderSubscribed, "subscribed", false, "Render for a subscribed viewer")
	renderCmd.Flags().DurationVar(&renderWait, "wait", 5*time.Second, "How long to wait for rows to resolve")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	set, err := pages.Load(cfg.PagesFile)
	if err != nil {
		return printer.Error("Cannot load pages", err.Error(), nil)
	}
	rows, ok := set.Rows(renderPage)
	if !ok {
		return printer.Error("Unknown page", "No page named "+renderPage+".", []string{
			"Pick one of the ids in " + cfg.PagesFile + ".",
		})
	}
	store, err := openStore(cfg.ReadOnly)
	if err != nil {
		return printer.Error("Cannot open database", err.Error(), nil)
	}
	defer store.Close()

	b, err := newBackend(store)
	if err != nil {
		return printer.Error("Invalid playlist source", err.Error(), nil)
	}
	defer b.Close()

	resolver, err := shelf.NewResolver(b.fetcher(renderClient), shelf.ResolverOptions{
		Capacity:     cfg.CacheCapacity,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer resolver.Close()

	list := shelf.NewList(resolver, nil, shelf.ListOptions{
		InitialRows: cfg.InitialRows,
		LoadRows:    cfg.LoadRows,
		Logger:      logger,
	})
	defer list.Close()

	list.SetRows(renderPage, rows)
	for i := 0; i < renderMore; i++ {
		if !list.NearEnd() {
			break
		}
	}

	snapshot := shelf.ViewerSnapshot{
		Viewer: shelf.Viewer{
			LoggedIn:        renderLoggedIn,
			HasSubscription: renderSubscribed,
			AccessModel:     cfg.Access(),
		},
		Display: cfg.Display(),
	}
	if renderClient != "" {
		history, err := store.WatchHistory(cmd.Context(), renderClient)
		if err != nil {
			printer.Warning("watch history unavailable: %v\n", err)
		}
		snapshot.History = history
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), renderWait)
	defer cancel()
	list.Render(snapshot)
	for _, key := range list.Keys() {
		if _, err := resolver.Await(ctx, key); err != nil {
			printer.Warning("gave up waiting for rows after %s\n", renderWait)
			break
		}
	}

	printer.Rows(os.Stdout, renderPage, list.Render(snapshot), len(rows))
	return nil
}
