package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/gemini-canvas-kit/pkg/adapters"
	"github.com/shouni/gemini-canvas-kit/pkg/config"
	"github.com/shouni/gemini-canvas-kit/pkg/generator"
	"github.com/shouni/gemini-canvas-kit/pkg/session"
	"github.com/shouni/gemini-canvas-kit/pkg/web"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}

	log := setupLogger(conf.Env)
	slog.SetDefault(log)

	log.With(
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Model),
		slog.String("addr", conf.ListenAddr),
	).Info("gemini canvas server を起動します")

	if err := conf.Validate(); err != nil {
		log.Error("GEMINI_API_KEY が未設定です。環境変数か設定ファイルで指定してください", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aiClient, err := generator.NewClient(ctx, conf.GeminiAPIKey)
	if err != nil {
		log.Error("Geminiクライアントの初期化に失敗しました", "error", err)
		os.Exit(1)
	}

	core, err := generator.NewGeminiImageCore(
		aiClient,
		adapters.NewLocalFileReader(conf.Fetch.FileRoot),
		adapters.NewHTTPFetcher(conf.Fetch.Timeout, conf.Fetch.MaxBytes),
		conf.Compression.Enabled,
		conf.Compression.Quality,
	)
	if err != nil {
		log.Error("画像コアの初期化に失敗しました", "error", err)
		os.Exit(1)
	}

	gen, err := generator.NewGeminiGenerator(core, conf.Model)
	if err != nil {
		log.Error("画像ジェネレーターの初期化に失敗しました", "error", err)
		os.Exit(1)
	}

	manager, err := session.NewManager(gen, conf.SessionTTL)
	if err != nil {
		log.Error("セッションマネージャーの初期化に失敗しました", "error", err)
		os.Exit(1)
	}
	manager.StartJanitor(ctx, conf.SweepInterval)

	srv, err := web.NewServer(conf.ListenAddr, manager, core)
	if err != nil {
		log.Error("Webサーバーの初期化に失敗しました", "error", err)
		os.Exit(1)
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("サーバーが異常終了しました", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
