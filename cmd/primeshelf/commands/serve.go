package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/treefix50/primeshelf/internal/pages"
	"github.com/treefix50/primeshelf/internal/printer"
	"github.com/treefix50/primeshelf/internal/server"
)

var (
	serveAddr string
	serveCORS bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve browse page sessions over HTTP",
	Long: `Serve browse page sessions over HTTP.

A client creates a session for a page, then asks for more rows as it
scrolls, reports hovered tiles and activates tiles to get the navigation
target.

Examples:
  primeshelf serve --addr :8080 --pages ./pages.yaml
  PRIMESHELF_REDIS_ADDR=localhost:6379 primeshelf serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (PRIMESHELF_ADDR)")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", false, "Allow cross-origin requests")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	set, err := pages.Load(cfg.PagesFile)
	if err != nil {
		return printer.Error("Cannot load pages", err.Error(), []string{
			"Point --pages or PRIMESHELF_PAGES at a valid pages YAML file.",
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

	var hoverInterval time.Duration
	if cfg.HoverPerMin > 0 {
		hoverInterval = time.Minute / time.Duration(cfg.HoverPerMin)
	}
	s, err := server.New(server.Options{
		Addr:          cfg.Addr,
		Pages:         set,
		Fetcher:       b.fetcher,
		Store:         store,
		PosterRoot:    cfg.PosterRoot,
		Renderer:      b.renderer(),
		Display:       cfg.Display(),
		AccessModel:   cfg.Access(),
		InitialRows:   cfg.InitialRows,
		LoadRows:      cfg.LoadRows,
		CacheCapacity: cfg.CacheCapacity,
		FetchTimeout:  cfg.FetchTimeout,
		SessionTTL:    cfg.SessionTTL,
		HoverInterval: hoverInterval,
		CORS:          serveCORS,
		Logger:        logger,
	})
	if err != nil {
		return printer.Error("Cannot start server", err.Error(), nil)
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		logger.Info("shutting down")
		_ = s.Close()
	}()

	logger.Info("primeshelf listening", "addr", cfg.Addr, "pages", len(set.Pages), "db", cfg.DBPath)
	return s.Start()
}
