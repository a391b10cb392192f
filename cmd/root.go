package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/EntityEditor/internal/api"
	"github.com/JonMunkholm/EntityEditor/internal/config"
	"github.com/JonMunkholm/EntityEditor/internal/export"
	"github.com/JonMunkholm/EntityEditor/internal/schema"
	"github.com/JonMunkholm/EntityEditor/internal/sqlfile"
	"github.com/JonMunkholm/EntityEditor/internal/store"
)

// Execute runs the command line. webFS holds the editor page under "web".
func Execute(webFS fs.FS) error {
	return newRootCmd(webFS).Execute()
}

func newRootCmd(webFS fs.FS) *cobra.Command {
	root := &cobra.Command{
		Use:   "entityeditor",
		Short: "entityeditor serves a visual editor for table definitions and their CREATE TABLE script.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, webFS)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd())
	return root
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

func serve(ctx context.Context, cfg *config.Config, webFS fs.FS) error {
	log := newLogger(cfg.Level())

	opts, err := cfg.RenderOptions()
	if err != nil {
		return err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	snapshots, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	registry := schema.NewRegistry(
		schema.WithStrictValidation(cfg.StrictValidation),
		schema.WithLogger(log.With().Str("component", "registry").Logger()),
	)
	exporter := export.New(opts, mode)
	exporter.Watch(registry)

	handler, err := api.NewHandler(api.Deps{
		Registry:  registry,
		Exporter:  exporter,
		Importer:  sqlfile.NewImporter(sqlfile.DefaultMaxSize, log.With().Str("component", "import").Logger()),
		Snapshots: snapshots,
		WebFS:     webFS,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("failed to create API handler: %w", err)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	var root http.Handler = mux
	if len(cfg.CORSOrigins) > 0 {
		root = cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", api.CSRFHeader},
			AllowCredentials: true,
		})(root)
	}

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        api.RequestLogger(log, "/api/csrf-token")(root),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", "http://localhost:"+cfg.Port).
			Bool("strict", cfg.StrictValidation).
			Str("export_mode", mode.String()).
			Msg("entity editor running")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		defer handler.Stop()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info().Msg("DATABASE_URL not set, keeping snapshots in memory")
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL, cfg.QueryTimeout, log.With().Str("component", "store").Logger())
	if err != nil {
		return nil, err
	}
	return pg, nil
}
