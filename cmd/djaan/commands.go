package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/cli"
	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/server"
	"github.com/BiradarScripts/Djaan/internal/storage"
	"github.com/BiradarScripts/Djaan/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh the index and start the HTTP API",
		Long: `Runs an initial refresh, then serves the HTTP API until interrupted.

With --watch (or watch.enabled in the config) changes under the source
directory trigger a debounced refresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh automatically when source files change")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, watch bool) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	components, err := initializeComponents(cfg, logger, refreshOverrides{})
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := components.Engine
	if _, err := engine.Refresh(ctx); err != nil {
		// The server still starts; a later refresh may succeed.
		logger.Error("initial refresh failed", zap.Error(err))
	}

	if watch || cfg.Watch.Enabled {
		w := watcher.NewWatcher(components.Source.Root(), components.Extensions, func() {
			if _, err := engine.Refresh(ctx); err != nil {
				logger.Warn("watch refresh failed", zap.Error(err))
			}
		}, watcher.WithLogger(logger), watcher.WithDebounce(cfg.Watch.Debounce))
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		defer w.Stop()
	}

	srv := server.NewServer(engine, cfg, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func newRefreshCmd(g *globalOptions) *cobra.Command {
	var (
		force     bool
		prune     bool
		output    string
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Sync the index with the source directory",
		Long: `Embeds new and changed documents, then rebuilds and persists the vector index.

Examples:
  djaan refresh
  djaan refresh --prune          # also drop records whose files are gone
  djaan refresh --force          # re-embed every document
  djaan refresh --server http://127.0.0.1:8000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if serverURL != "" {
				if force || prune {
					return errors.New("--force and --prune apply to local refreshes only")
				}
				report, err := cli.NewClient(serverURL).Refresh(ctx)
				if err != nil {
					return fmt.Errorf("refresh failed: %w", err)
				}
				return cli.WriteRefreshReport(cmd.OutOrStdout(), report, format)
			}

			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			components, err := initializeComponents(cfg, logger, refreshOverrides{force: force, prune: prune})
			if err != nil {
				return err
			}
			defer components.Close()

			report, err := components.Engine.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			return cli.WriteRefreshReport(cmd.OutOrStdout(), report, format)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-embed every document regardless of its content hash")
	cmd.Flags().BoolVar(&prune, "prune", false, "delete records whose source file no longer exists")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&serverURL, "server", "", "refresh through a running server instead of locally")
	return cmd
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var (
		topK      int
		expand    bool
		output    string
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Returns the documents most similar to the query, with a keyword-overlap explanation.

The query is all remaining arguments joined by spaces. Without --server the
index is refreshed locally before searching.

Examples:
  djaan search how do telescopes work
  djaan search "outer space" --expand --top-k 3
  djaan search galaxies --output json --server http://127.0.0.1:8000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			req := &models.SearchRequest{Query: buildSearchQuery(args), TopK: topK, UseExpansion: expand}
			ctx := cmd.Context()

			if serverURL != "" {
				if req.TopK == 0 {
					req.TopK = models.DefaultTopK
				}
				resp, err := cli.NewClient(serverURL).Search(ctx, req)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
			}

			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if req.TopK == 0 {
				req.TopK = cfg.Search.DefaultTopK
			}
			if err := req.Validate(); err != nil {
				return err
			}
			components, err := initializeComponents(cfg, logger, refreshOverrides{})
			if err != nil {
				return err
			}
			defer components.Close()

			if _, err := components.Engine.Refresh(ctx); err != nil {
				return fmt.Errorf("refresh before search failed: %w", err)
			}
			resp, err := components.Engine.Search(ctx, req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, format)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default search.default_top_k)")
	cmd.Flags().BoolVarP(&expand, "expand", "e", false, "expand the query with thesaurus synonyms")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&serverURL, "server", "", "query a running server instead of the local index")
	return cmd
}

func newStatusCmd(g *globalOptions) *cobra.Command {
	var (
		output    string
		serverURL string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and storage status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if serverURL != "" {
				status, err := cli.NewClient(serverURL).Status(ctx)
				if err != nil {
					return fmt.Errorf("status failed: %w", err)
				}
				return cli.WriteStatus(cmd.OutOrStdout(), status, format)
			}

			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			components, err := initializeComponents(cfg, logger, refreshOverrides{})
			if err != nil {
				return err
			}
			defer components.Close()

			status, err := localStatus(ctx, components, cfg.Storage.DatabasePath, cfg.Storage.IndexPath)
			if err != nil {
				return err
			}
			status.Config = server.NewConfigReport(cfg)
			return cli.WriteStatus(cmd.OutOrStdout(), status, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&serverURL, "server", "", "query a running server instead of local storage")
	return cmd
}

// localStatus reports on the persisted state without syncing the source. The index file is
// loaded when it matches the store, so index_size reflects what a server would warm-start with.
func localStatus(ctx context.Context, c *Components, dbPath, indexPath string) (*server.StatusResponse, error) {
	if err := c.Engine.WarmStart(ctx); err != nil {
		return nil, err
	}
	stats, err := c.Engine.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("status failed: %w", err)
	}
	status := &server.StatusResponse{IndexStats: stats}
	if diskBytes, err := storage.DiskUsage(dbPath, indexPath); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

// buildSearchQuery joins positional args so multi-word queries work with or without quotes.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
