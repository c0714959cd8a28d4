package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/oshiscout/internal/middleware"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	InternalAPIKey    string
	RateLimiter       *middleware.RateLimiter

	// エージェント
	RootAgent   WorkflowRunner
	BudgetAgent BudgetReporter
	Sweeper     FeedSweeper

	// リポジトリ
	OshiRepo    repository.OshiRepository
	ItemRepo    repository.ItemRepository
	NodeRepo    repository.NodeRepository
	ExpenseRepo repository.ExpenseRepository

	// /metrics エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → Logging → InternalAuth → RateLimit(General)
//
// エージェント実行ルートにはさらにエージェント専用レート制限がかかる。
// /healthz と /metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	oshiHandler := NewOshiHandler(deps.OshiRepo, deps.ItemRepo)
	agentHandler := NewAgentHandler(deps.RootAgent, deps.BudgetAgent, deps.Sweeper, deps.OshiRepo)
	networkHandler := NewNetworkHandler(deps.OshiRepo, deps.NodeRepo)
	expenseHandler := NewExpenseHandler(deps.ExpenseRepo)

	// --- 認証不要のルート ---

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 内部APIキー認証が必要なルート ---
	// ミドルウェアスタック: InternalAuth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewInternalAuthMiddleware(deps.InternalAPIKey))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 推し管理
		r.Route("/api/oshis", func(r chi.Router) {
			r.Post("/", oshiHandler.CreateOshi)
			r.Get("/", oshiHandler.ListOshis)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", oshiHandler.GetOshi)
				r.Put("/", oshiHandler.UpdateOshi)
				r.Delete("/", oshiHandler.DeleteOshi)

				// GET /api/oshis/{id}/items - 収集情報タイムライン
				r.Get("/items", oshiHandler.ListItems)
			})
		})

		// 支出管理
		r.Route("/api/expenses", func(r chi.Router) {
			r.Post("/", expenseHandler.CreateExpense)
			r.Get("/", expenseHandler.ListExpenses)
		})

		// エージェント実行（検索API・LLM呼び出しを伴うため専用レート制限を追加）
		r.Route("/api/agent", func(r chi.Router) {
			agentLimit := deps.RateLimiter.AgentMiddleware()

			r.With(agentLimit).Post("/scout", agentHandler.RunScout)
			r.With(agentLimit).Post("/scout-all", agentHandler.RunScoutAll)
			r.With(agentLimit).Post("/summary", agentHandler.RunSummary)
			r.With(agentLimit).Post("/sweep", agentHandler.SweepFeed)
			r.Post("/budget", agentHandler.RunBudget)

			r.Route("/network", func(r chi.Router) {
				r.With(agentLimit).Post("/scout", agentHandler.RunNetworkScout)
				r.With(agentLimit).Post("/discover", agentHandler.DiscoverNetwork)

				// ネットワーク閲覧・管理はエージェント実行ではないので一般レートのみ
				r.Get("/{oshi_id}", networkHandler.ListNetwork)
				r.Post("/nodes/{node_id}/deactivate", networkHandler.DeactivateNode)
			})
		})
	})

	return r
}
