package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jpp0ca/ListeningStats/internal/adapters/chart"
	"github.com/jpp0ca/ListeningStats/internal/adapters/history"
	handler "github.com/jpp0ca/ListeningStats/internal/adapters/http"
	"github.com/jpp0ca/ListeningStats/internal/adapters/lastfm"
	"github.com/jpp0ca/ListeningStats/internal/adapters/sqlite"
	"github.com/jpp0ca/ListeningStats/internal/app"
	"github.com/jpp0ca/ListeningStats/internal/config"
	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/report"
	"github.com/jpp0ca/ListeningStats/internal/stats"

	_ "github.com/jpp0ca/ListeningStats/docs"
)

const httpTimeout = 30 * time.Second

// @title			ListeningStats API
// @version		1.0
// @description	Read-only statistics over a Spotify extended streaming history.

// @contact.name	ListeningStats Support
// @license.name	MIT

// @host		localhost:8080
// @BasePath	/
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "listeningstats",
		Short: "Analyze a Spotify streaming history with Last.fm metadata",
		Long: `listeningstats reads a Spotify extended streaming history export,
enriches tracks and artists with Last.fm metadata (cached in SQLite)
and writes a cross-linked markdown report with charts.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file (default: $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable output")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <history.json>",
		Short: "Enrich the history and write the report",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().Bool("force", false, "Regenerate song and artist pages that already exist")

	fetchCmd := &cobra.Command{
		Use:   "fetch <history.json>",
		Short: "Fill the metadata cache without writing a report",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetch,
	}

	serveCmd := &cobra.Command{
		Use:   "serve <history.json>",
		Short: "Serve statistics for the history over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}

	rootCmd.AddCommand(analyzeCmd, fetchCmd, serveCmd, newCacheCmd())
	return rootCmd
}

// -- Commands ----------------------------------------------------------------

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if force, _ := cmd.Flags().GetBool("force"); force {
		cfg.RecreateDetailPages = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := resolveInput(cfg, args[0])
	return withPipeline(cfg, input, func(p *app.Pipeline) error {
		summary, err := p.Run(ctx, input)
		if err != nil {
			return err
		}
		return printSummary(cmd, summary)
	})
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input := resolveInput(cfg, args[0])
	return withPipeline(cfg, input, func(p *app.Pipeline) error {
		summary, err := p.Fetch(ctx, input)
		if err != nil {
			return err
		}
		return printSummary(cmd, summary)
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	agg, err := newAggregator(cfg)
	if err != nil {
		return err
	}

	input := resolveInput(cfg, args[0])
	events, err := history.NewStore().Load(input)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", input, err)
	}

	statsService := app.NewStatsService(agg, events)

	r := gin.Default()
	r.Use(corsMiddleware(cfg.CORSOrigins))
	h := handler.NewHandler(statsService)
	h.RegisterRoutes(r)

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	addr := ":" + cfg.Port
	log := logging.Component("http")
	log.Info().Str("addr", addr).Str("input", input).Int("events", len(events)).Msg("Starting ListeningStats API")
	log.Info().Msgf("Swagger UI: http://localhost%s/swagger/index.html", addr)

	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// -- Wiring ------------------------------------------------------------------

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, nil
}

func newAggregator(cfg *config.Config) (*stats.Aggregator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return stats.New(cfg.MinPlayDurationMs, loc), nil
}

// withPipeline loads input, then opens the cache, builds every stage and closes
// the cache after fn. A bad input returns before the cache file is touched.
func withPipeline(cfg *config.Config, input string, fn func(*app.Pipeline) error) error {
	agg, err := newAggregator(cfg)
	if err != nil {
		return err
	}

	store := history.NewStore()
	if _, err := store.Load(input); err != nil {
		return fmt.Errorf("pipeline: failed to load %s: %w", input, err)
	}

	cache, err := sqlite.Open(cfg.CachePath)
	if err != nil {
		return err
	}
	defer closeCache(cache)

	if cfg.LastFMAPIKey == "" {
		logging.Warn().Msg("LASTFM_API_KEY is not set, only cached metadata will be used")
	}

	provider := lastfm.NewBreakerProvider(
		lastfm.NewProvider(&http.Client{Timeout: httpTimeout}, cfg.LastFMBaseURL, cfg.LastFMAPIKey),
		lastfm.BreakerConfig{MaxFailures: cfg.BreakerMaxFailures, Timeout: cfg.BreakerTimeout},
	)

	enricher := app.NewEnrichmentService(cache, provider, app.EnrichmentOptions{
		MinInterval: cfg.RequestInterval,
		Progress:    os.Stderr,
	})

	generator := report.NewGenerator(agg, app.NewCatalog(cache, provider), chart.NewRenderer(0, 0), report.Options{
		OutputDir:      cfg.OutputDir,
		Force:          cfg.RecreateDetailPages,
		TopSongs:       cfg.TopSongsCount,
		TopArtists:     cfg.TopArtistsCount,
		ArtistPages:    cfg.ArtistPagesCount,
		ArtistSongs:    cfg.ArtistSongsCount,
		MonthlyArtists: cfg.MonthlyArtistsCount,
	})

	return fn(app.NewPipeline(store, enricher, generator, agg, cfg.ArtistPagesCount))
}

func closeCache(cache *sqlite.Cache) {
	if err := cache.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close cache")
	}
}

// corsMiddleware allows any origin unless CORS_ORIGINS lists specific ones.
func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	})
}

// resolveInput accepts a path or a file name inside the configured input directory.
func resolveInput(cfg *config.Config, arg string) string {
	if _, err := os.Stat(arg); err == nil || filepath.IsAbs(arg) || cfg.InputDir == "" {
		return arg
	}
	candidate := filepath.Join(cfg.InputDir, arg)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return arg
}

func printSummary(cmd *cobra.Command, summary *domain.RunSummary) error {
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "run %s: %d events\n", summary.RunID, summary.Events)
	fmt.Fprintf(out, "tracks:  %d cached, %d fetched, %d failed, %d skipped\n",
		summary.Tracks.Cached, summary.Tracks.Fetched, summary.Tracks.Failed, summary.Tracks.Skipped)
	fmt.Fprintf(out, "artists: %d cached, %d fetched, %d failed, %d skipped\n",
		summary.Artists.Cached, summary.Artists.Fetched, summary.Artists.Failed, summary.Artists.Skipped)
	if summary.Report != nil {
		fmt.Fprintf(out, "report:  %s\n", summary.Report.OutputDir)
	}
	return nil
}
