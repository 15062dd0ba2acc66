package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"xprobe/internal/application/usecase/smoketest"
	"xprobe/internal/infrastructure/config"
	"xprobe/internal/infrastructure/container"
	"xprobe/internal/infrastructure/logger"
	"xprobe/internal/interfaces/console"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml / config.yaml (missing file => built-in endpoints)")
	noColor := flag.Bool("no-color", false, "disable ANSI colors in the summary")
	flag.Parse()

	logger.Setup("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	runID := uuid.NewString()
	log.Logger = log.With().Str("run", runID[:8]).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("init failed")
		return smoketest.ExitFail
	}
	defer c.Close()

	svc := smoketest.NewService(smoketest.ServiceDeps{
		Rest:       c.RestProber(),
		Stream:     c.StreamProber(),
		Sink:       console.NewSink(),
		Publishers: c.Publishers(),
		Formatter:  smoketest.NewFormatter(!*noColor),
		RunID:      runID,
	})

	log.Info().
		Str("config", *configPath).
		Str("rest", cfg.Rest.BaseURL).
		Str("symbol", cfg.Rest.Symbol).
		Bool("stream_enabled", cfg.Stream.Enabled).
		Str("stream", cfg.Stream.URL).
		Msg("xprobe started")

	report := svc.Run(ctx)
	return report.ExitCode
}
