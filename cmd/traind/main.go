package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"traind/internal/app"
	"traind/internal/config"
	"traind/internal/httpapi"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		flagCfg    config.Config
		corsFlag   string
	)

	cmd := &cobra.Command{
		Use:           "traind",
		Short:         "Local training daemon for the editor tool",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath, flagCfg)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, splitCSV(corsFlag))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml, .toml or .json)")
	cmd.Flags().StringVar(&flagCfg.Addr, "addr", "", "HTTP listen address (default "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&flagCfg.DataDir, "data-dir", "", "Directory for model metadata and exports (default "+config.DefaultDataDir+")")
	cmd.Flags().StringVar(&flagCfg.LogLevel, "log-level", "", "Log level: trace|debug|info|warn|error (default "+config.DefaultLogLevel+")")
	cmd.Flags().StringVar(&flagCfg.LogFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().StringVar(&flagCfg.DefaultPreference, "preference", "", "Device preference at startup (default "+config.DefaultPreference+")")
	cmd.Flags().IntVar(&flagCfg.RefreshSeconds, "refresh-seconds", 0, "Selected-device utilization refresh interval")
	cmd.Flags().StringVar(&corsFlag, "cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")
	return cmd
}

// resolveConfig layers flag overrides over the optional config file, then
// fills the gaps with defaults.
func resolveConfig(path string, overrides config.Config) (config.Config, error) {
	cfg := config.Config{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if overrides.Addr != "" {
		cfg.Addr = overrides.Addr
	}
	if overrides.DataDir != "" {
		cfg.DataDir = overrides.DataDir
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.LogFile != "" {
		cfg.LogFile = overrides.LogFile
	}
	if overrides.DefaultPreference != "" {
		cfg.DefaultPreference = overrides.DefaultPreference
	}
	if overrides.RefreshSeconds > 0 {
		cfg.RefreshSeconds = overrides.RefreshSeconds
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, corsOrigins []string) error {
	log, closeLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("construct: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", app.Version).Msg("starting device discovery")
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	if len(corsOrigins) > 0 {
		httpapi.SetCORSOptions(true, corsOrigins,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			[]string{"Content-Type", "X-Log-Level"})
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("traind listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.RunUtilizationRefresher(gctx, time.Duration(cfg.RefreshSeconds)*time.Second)
	})
	g.Go(func() error {
		<-gctx.Done()
		grace := time.Duration(cfg.ShutdownGraceSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()

		log.Info().Dur("grace", grace).Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown incomplete")
		}
		if err := a.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("training shutdown incomplete")
		}
		log.Info().Msg("shutdown complete")
		return nil
	})
	return g.Wait()
}

// buildLogger assembles the root zerolog logger: console writer on
// stderr, plus a JSON file sink when configured.
func buildLogger(cfg config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	writers := []io.Writer{console}
	closeLog := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closeLog = func() { f.Close() }
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
	return log, closeLog, nil
}

// splitCSV splits a comma-separated flag value, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
