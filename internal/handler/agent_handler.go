package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/oshiscout/internal/agent"
	"github.com/hitoshi/oshiscout/internal/model"
)

// WorkflowRunner はエージェントワークフローの実行インターフェース。
type WorkflowRunner interface {
	RunScoutWorkflow(ctx context.Context, oshiID string) (*agent.ScoutResult, error)
	RunNetworkScout(ctx context.Context, oshiID string) (*agent.NetworkScoutResult, error)
	DiscoverNetwork(ctx context.Context, oshiID string) (*agent.DiscoverResult, error)
	RunScoutAndSummarize(ctx context.Context, oshiID string) (*agent.ScoutSummaryResult, error)
	RunAllScouts(ctx context.Context) (*agent.AllScoutsResult, error)
}

// BudgetReporter は月次予算レポート生成のインターフェース。
type BudgetReporter interface {
	GenerateReport(ctx context.Context, userID string, year, month int) (*agent.BudgetReport, error)
}

// FeedSweeper は公式フィード巡回のインターフェース。
type FeedSweeper interface {
	Sweep(ctx context.Context, oshi *model.Oshi) ([]string, error)
}

// AgentHandler はエージェント実行のHTTPハンドラー。
type AgentHandler struct {
	root     WorkflowRunner
	budget   BudgetReporter
	sweeper  FeedSweeper
	oshiRepo oshiFinder
}

// NewAgentHandler はAgentHandlerを生成する。
func NewAgentHandler(root WorkflowRunner, budget BudgetReporter, sweeper FeedSweeper, oshiRepo oshiFinder) *AgentHandler {
	return &AgentHandler{
		root:     root,
		budget:   budget,
		sweeper:  sweeper,
		oshiRepo: oshiRepo,
	}
}

// scoutRequest はエージェント実行リクエストのボディ。
type scoutRequest struct {
	OshiID string `json:"oshi_id"`
}

// budgetRequest は予算レポート生成リクエストのボディ。
type budgetRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// sweepResponse は公式フィード巡回のレスポンス。
type sweepResponse struct {
	OshiID         string   `json:"oshi_id"`
	OshiName       string   `json:"oshi_name"`
	CollectedCount int      `json:"collected_count"`
	NewItemIDs     []string `json:"new_item_ids"`
}

// discoverResponse はネットワーク発見のレスポンス。
type discoverResponse struct {
	OshiID          string         `json:"oshi_id"`
	OshiName        string         `json:"oshi_name"`
	DiscoveredCount int            `json:"discovered_count"`
	Nodes           []nodeResponse `json:"nodes"`
}

// decodeScoutRequest はoshi_id必須のリクエストボディを読み取り、
// 所有権を検証した推しを返す。失敗時はエラーレスポンス書き込み済み。
func (h *AgentHandler) decodeScoutRequest(w http.ResponseWriter, r *http.Request) (*model.Oshi, bool) {
	var req scoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディの解析に失敗しました"))
		return nil, false
	}
	if req.OshiID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("oshi_idが空です"))
		return nil, false
	}
	return resolveOwnedOshi(w, r, h.oshiRepo, req.OshiID)
}

// RunScout はScoutワークフロー（情報収集 + 重要度判定）を実行する。
// POST /api/agent/scout
func (h *AgentHandler) RunScout(w http.ResponseWriter, r *http.Request) {
	oshi, ok := h.decodeScoutRequest(w, r)
	if !ok {
		return
	}

	result, err := h.root.RunScoutWorkflow(r.Context(), oshi.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// RunScoutAll は全推しのScoutワークフローを実行する。定期実行トリガー用。
// POST /api/agent/scout-all
func (h *AgentHandler) RunScoutAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.root.RunAllScouts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// RunNetworkScout は直接収集とネットワーク収集を併用するワークフローを実行する。
// POST /api/agent/network/scout
func (h *AgentHandler) RunNetworkScout(w http.ResponseWriter, r *http.Request) {
	oshi, ok := h.decodeScoutRequest(w, r)
	if !ok {
		return
	}

	result, err := h.root.RunNetworkScout(r.Context(), oshi.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// DiscoverNetwork は推しの関連人物・組織・情報源をLLMで発見する。
// POST /api/agent/network/discover
func (h *AgentHandler) DiscoverNetwork(w http.ResponseWriter, r *http.Request) {
	oshi, ok := h.decodeScoutRequest(w, r)
	if !ok {
		return
	}

	result, err := h.root.DiscoverNetwork(r.Context(), oshi.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	nodes := make([]nodeResponse, 0, len(result.Nodes))
	for _, node := range result.Nodes {
		nodes = append(nodes, toNodeResponse(node))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(discoverResponse{
		OshiID:          result.OshiID,
		OshiName:        result.OshiName,
		DiscoveredCount: result.DiscoveredCount,
		Nodes:           nodes,
	})
}

// RunSummary はScout実行後に活動サマリーを生成する。推し登録直後の初回体験用。
// POST /api/agent/summary
func (h *AgentHandler) RunSummary(w http.ResponseWriter, r *http.Request) {
	oshi, ok := h.decodeScoutRequest(w, r)
	if !ok {
		return
	}

	result, err := h.root.RunScoutAndSummarize(r.Context(), oshi.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// SweepFeed は推しの公式サイトのフィードを巡回して収集情報を取り込む。
// POST /api/agent/sweep
func (h *AgentHandler) SweepFeed(w http.ResponseWriter, r *http.Request) {
	oshi, ok := h.decodeScoutRequest(w, r)
	if !ok {
		return
	}

	newIDs, err := h.sweeper.Sweep(r.Context(), oshi)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sweepResponse{
		OshiID:         oshi.ID,
		OshiName:       oshi.Name,
		CollectedCount: len(newIDs),
		NewItemIDs:     newIDs,
	})
}

// RunBudget は月次予算レポートを生成する。
// POST /api/agent/budget
func (h *AgentHandler) RunBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディの解析に失敗しました"))
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("yearは2000〜2100で指定してください"))
		return
	}
	if req.Month < 1 || req.Month > 12 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("monthは1〜12で指定してください"))
		return
	}

	report, err := h.budget.GenerateReport(r.Context(), userID, req.Year, req.Month)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
