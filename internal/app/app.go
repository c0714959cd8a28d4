package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/oshiscout/internal/agent"
	"github.com/hitoshi/oshiscout/internal/config"
	"github.com/hitoshi/oshiscout/internal/database"
	"github.com/hitoshi/oshiscout/internal/feedsite"
	"github.com/hitoshi/oshiscout/internal/gemini"
	"github.com/hitoshi/oshiscout/internal/handler"
	"github.com/hitoshi/oshiscout/internal/logger"
	"github.com/hitoshi/oshiscout/internal/metrics"
	"github.com/hitoshi/oshiscout/internal/middleware"
	"github.com/hitoshi/oshiscout/internal/repository"
	"github.com/hitoshi/oshiscout/internal/search"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	oshiRepo := repository.NewPostgresOshiRepo(db)
	itemRepo := repository.NewPostgresItemRepo(db)
	nodeRepo := repository.NewPostgresNodeRepo(db)
	expenseRepo := repository.NewPostgresExpenseRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 外部APIクライアントの初期化
	searchClient := search.NewClient(
		&http.Client{Timeout: cfg.SearchTimeout},
		slog.Default(), cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX,
	)

	geminiClient, err := gemini.NewClient(
		context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, slog.Default(),
	)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer geminiClient.Close()
	geminiClient.SetMetrics(collector)

	// 5. エージェントの初期化
	scoutAgent := agent.NewScoutAgent(itemRepo, nodeRepo, searchClient, collector, slog.Default())
	networkAgent := agent.NewNetworkAgent(nodeRepo, geminiClient, collector, slog.Default())
	priorityAgent := agent.NewPriorityAgent(itemRepo, geminiClient, collector, slog.Default())
	rootAgent := agent.NewRootAgent(
		oshiRepo, itemRepo,
		scoutAgent, networkAgent, priorityAgent,
		geminiClient, collector, slog.Default(),
	)
	budgetAgent := agent.NewBudgetAgent(expenseRepo, geminiClient, slog.Default())

	// 6. 公式フィード巡回の初期化
	sweeper := feedsite.NewSweeper(itemRepo, collector, slog.Default(), cfg.FeedTimeout, cfg.FeedMaxSize)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAgent),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		InternalAPIKey:    cfg.InternalAPIKey,
		RateLimiter:       rateLimiter,

		RootAgent:   rootAgent,
		BudgetAgent: budgetAgent,
		Sweeper:     sweeper,

		OshiRepo:    oshiRepo,
		ItemRepo:    itemRepo,
		NodeRepo:    nodeRepo,
		ExpenseRepo: expenseRepo,

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
