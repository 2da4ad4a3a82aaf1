package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-console/config"
	"voice-console/internal/application"
	"voice-console/internal/infra/classifier"
	"voice-console/internal/infra/hub"
	"voice-console/internal/infra/listen"
	"voice-console/internal/infra/pushover"
	"voice-console/internal/infra/speech"
	"voice-console/internal/infra/timer"
	"voice-console/internal/infra/transcribe"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	hubClient := hub.NewClient(cfg.Hub.URL, cfg.Hub.Token)
	catalog := hub.NewCatalog(hubClient, parseDuration(cfg.Hub.FreshTTL, 5*time.Second, logger), logger)

	logger.Info("syncing target catalog")
	if err := catalog.Sync(ctx); err != nil {
		logger.Error("initial catalog sync", "error", err)
		os.Exit(1)
	}
	if interval := parseDuration(cfg.Hub.SyncInterval, 5*time.Minute, logger); interval > 0 {
		catalog.StartPeriodicSync(ctx, interval)
	}

	routines, err := config.LoadRoutines(cfg.Console.RoutinesFile)
	if err != nil {
		logger.Error("loading routines", "error", err)
		os.Exit(1)
	}
	logger.Info("routines loaded", "count", len(routines))

	source := createSource(cfg, logger)
	manager := application.NewListenManager(source, parseDuration(cfg.Console.RestartCooldown, 300*time.Millisecond, logger), logger)

	var sinks application.MultiSink
	sinks = append(sinks, application.LogSink{Logger: logger})
	if cfg.Pushover.Enabled {
		sinks = append(sinks, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey))
	}

	var synth application.Synthesizer = application.NoopSynthesizer{}
	if cfg.Console.VoiceOutput {
		synth = speech.NewConsoleSynthesizer(os.Stdout)
	}
	gate := application.NewSpeechGate(synth, sinks)

	resolver := application.NewResolver(catalog)
	dispatcher := application.NewDispatcher(
		hubClient,
		catalog,
		timer.NewClient(cfg.Timer.URL),
		resolver,
		logger,
	)
	responder := application.NewQueryResponder(catalog, resolver, parseDuration(cfg.Console.PropagationWait, 300*time.Millisecond, logger), logger)

	console := application.NewConsole(
		manager,
		application.NewSegmenter(cfg.Console.WakeWord),
		application.NewRoutineSet(routines),
		classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.APIKey),
		dispatcher,
		responder,
		gate,
		sinks,
		parseDuration(cfg.Console.AwaitTimeout, 5*time.Second, logger),
		logger,
	)

	// Manual listening control for headless installs: SIGUSR1 closes the
	// microphone, SIGUSR2 reopens it.
	go func() {
		toggleCh := make(chan os.Signal, 1)
		signal.Notify(toggleCh, syscall.SIGUSR1, syscall.SIGUSR2)
		for sig := range toggleCh {
			switch sig {
			case syscall.SIGUSR1:
				logger.Info("listening stopped by signal")
				console.StopListening()
			case syscall.SIGUSR2:
				logger.Info("listening resumed by signal")
				console.StartListening()
			}
		}
	}()

	logger.Info("starting voice console",
		"wake_word", cfg.Console.WakeWord,
		"source", cfg.Listen.Source,
	)

	if err := console.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("console error", "error", err)
		os.Exit(1)
	}
}

func createSource(cfg *config.Config, logger *slog.Logger) application.TranscriptSource {
	switch cfg.Listen.Source {
	case "http":
		return listen.NewHTTPSource(cfg.Listen.HTTPAddr, cfg.Listen.AuthToken, logger)
	case "file":
		return listen.NewFileSource(cfg.Listen.FileDir)
	case "microphone":
		stt := transcribe.NewClient(cfg.Transcribe.URL, cfg.Transcribe.APIKey, cfg.Transcribe.Language)
		return listen.NewMicSource(stt, cfg.Listen.SampleRate, logger)
	default:
		logger.Warn("unknown transcript source, using http", "source", cfg.Listen.Source)
		return listen.NewHTTPSource(cfg.Listen.HTTPAddr, cfg.Listen.AuthToken, logger)
	}
}

func parseDuration(value string, fallback time.Duration, logger *slog.Logger) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid duration, using default", "value", value, "default", fallback)
		return fallback
	}
	return d
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
