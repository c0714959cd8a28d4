package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/oshiscout/internal/gemini"
	"github.com/hitoshi/oshiscout/internal/metrics"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// Summarizer は活動サマリー生成のインターフェース。
type Summarizer interface {
	GenerateSummary(ctx context.Context, oshiName string, items []gemini.SummaryItem) string
}

// RootAgent は全エージェントを統括するオーケストレーター。
// 1回の実行は 収集 →（条件付きで）ネットワーク収集 → 重要度判定 の
// 順次パスで、状態は持たない。
type RootAgent struct {
	oshiRepo      repository.OshiRepository
	itemRepo      repository.ItemRepository
	scoutAgent    *ScoutAgent
	networkAgent  *NetworkAgent
	priorityAgent *PriorityAgent
	summarizer    Summarizer
	collector     metrics.MetricsCollector
	logger        *slog.Logger
}

// NewRootAgent はRootAgentの新しいインスタンスを生成する。
func NewRootAgent(
	oshiRepo repository.OshiRepository,
	itemRepo repository.ItemRepository,
	scoutAgent *ScoutAgent,
	networkAgent *NetworkAgent,
	priorityAgent *PriorityAgent,
	summarizer Summarizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *RootAgent {
	return &RootAgent{
		oshiRepo:      oshiRepo,
		itemRepo:      itemRepo,
		scoutAgent:    scoutAgent,
		networkAgent:  networkAgent,
		priorityAgent: priorityAgent,
		summarizer:    summarizer,
		collector:     collector,
		logger:        logger,
	}
}

// ScoutResult はScoutワークフローの実行結果。
type ScoutResult struct {
	OshiID          string                    `json:"oshi_id"`
	OshiName        string                    `json:"oshi_name"`
	CollectedCount  int                       `json:"collected_count"`
	NewItemIDs      []string                  `json:"new_item_ids"`
	PriorityResults map[string]model.Priority `json:"priority_results"`
}

// NetworkScoutResult はネットワーク併用Scoutの実行結果。
type NetworkScoutResult struct {
	OshiID          string                    `json:"oshi_id"`
	OshiName        string                    `json:"oshi_name"`
	DirectCount     int                       `json:"direct_count"`
	NetworkCount    int                       `json:"network_count"`
	TotalCount      int                       `json:"total_count"`
	NewItemIDs      []string                  `json:"new_item_ids"`
	PriorityResults map[string]model.Priority `json:"priority_results"`
}

// DiscoverResult はネットワーク発見の実行結果。
type DiscoverResult struct {
	OshiID          string               `json:"oshi_id"`
	OshiName        string               `json:"oshi_name"`
	DiscoveredCount int                  `json:"discovered_count"`
	Nodes           []*model.NetworkNode `json:"nodes"`
}

// ScoutSummaryResult はScout+サマリー生成の実行結果。
type ScoutSummaryResult struct {
	NetworkScoutResult
	DiscoveredCount int    `json:"discovered_count"`
	Summary         string `json:"summary"`
}

// OshiScoutOutcome は全推し収集における1推し分の結果。
type OshiScoutOutcome struct {
	OshiID   string       `json:"oshi_id"`
	OshiName string       `json:"oshi_name"`
	Result   *ScoutResult `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// AllScoutsResult は全推し収集の実行結果。
type AllScoutsResult struct {
	TotalOshis   int                `json:"total_oshis"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Results      []OshiScoutOutcome `json:"results"`
}

// resolveOshi は推しを取得し、存在しなければNotFoundエラーを返す。
func (a *RootAgent) resolveOshi(ctx context.Context, oshiID string) (*model.Oshi, error) {
	oshi, err := a.oshiRepo.FindByID(ctx, oshiID)
	if err != nil {
		return nil, err
	}
	if oshi == nil {
		return nil, model.NewOshiNotFoundError(oshiID)
	}
	return oshi, nil
}

// RunScoutWorkflow は指定推しのScoutワークフローを実行する。
// 収集 → （新規があれば）重要度判定 の順に実行して結果を返す。
func (a *RootAgent) RunScoutWorkflow(ctx context.Context, oshiID string) (*ScoutResult, error) {
	start := time.Now()
	defer func() { a.collector.RecordWorkflowDuration("scout", time.Since(start)) }()

	a.logger.Info("Scoutワークフローを開始します", slog.String("oshi_id", oshiID))

	oshi, err := a.resolveOshi(ctx, oshiID)
	if err != nil {
		return nil, err
	}

	newIDs, err := a.scoutAgent.Collect(ctx, oshi)
	if err != nil {
		return nil, err
	}

	priorityResults := map[string]model.Priority{}
	if len(newIDs) > 0 {
		priorityResults, err = a.priorityAgent.Classify(ctx, newIDs)
		if err != nil {
			return nil, err
		}
	}

	a.logger.Info("Scoutワークフローが完了しました",
		slog.String("oshi_id", oshiID),
		slog.Int("collected_count", len(newIDs)),
	)
	return &ScoutResult{
		OshiID:          oshi.ID,
		OshiName:        oshi.Name,
		CollectedCount:  len(newIDs),
		NewItemIDs:      newIDs,
		PriorityResults: priorityResults,
	}, nil
}

// RunNetworkScout は直接収集とネットワーク収集を併用するワークフローを実行する。
// 新規IDは直接収集分を先頭にした和集合にまとめ、まとめて重要度判定する。
func (a *RootAgent) RunNetworkScout(ctx context.Context, oshiID string) (*NetworkScoutResult, error) {
	start := time.Now()
	defer func() { a.collector.RecordWorkflowDuration("network_scout", time.Since(start)) }()

	a.logger.Info("ネットワークScoutワークフローを開始します", slog.String("oshi_id", oshiID))

	oshi, err := a.resolveOshi(ctx, oshiID)
	if err != nil {
		return nil, err
	}

	directIDs, err := a.scoutAgent.Collect(ctx, oshi)
	if err != nil {
		return nil, err
	}

	networkIDs, err := a.scoutAgent.CollectFromNetwork(ctx, oshi)
	if err != nil {
		return nil, err
	}

	allIDs := append(append([]string{}, directIDs...), networkIDs...)

	priorityResults := map[string]model.Priority{}
	if len(allIDs) > 0 {
		priorityResults, err = a.priorityAgent.Classify(ctx, allIDs)
		if err != nil {
			return nil, err
		}
	}

	a.logger.Info("ネットワークScoutワークフローが完了しました",
		slog.String("oshi_id", oshiID),
		slog.Int("direct_count", len(directIDs)),
		slog.Int("network_count", len(networkIDs)),
	)
	return &NetworkScoutResult{
		OshiID:          oshi.ID,
		OshiName:        oshi.Name,
		DirectCount:     len(directIDs),
		NetworkCount:    len(networkIDs),
		TotalCount:      len(allIDs),
		NewItemIDs:      allIDs,
		PriorityResults: priorityResults,
	}, nil
}

// DiscoverNetwork はネットワーク発見を実行して結果を整形する。
func (a *RootAgent) DiscoverNetwork(ctx context.Context, oshiID string) (*DiscoverResult, error) {
	start := time.Now()
	defer func() { a.collector.RecordWorkflowDuration("discover", time.Since(start)) }()

	oshi, err := a.resolveOshi(ctx, oshiID)
	if err != nil {
		return nil, err
	}

	nodes, err := a.networkAgent.Discover(ctx, oshi)
	if err != nil {
		return nil, err
	}

	return &DiscoverResult{
		OshiID:          oshi.ID,
		OshiName:        oshi.Name,
		DiscoveredCount: len(nodes),
		Nodes:           nodes,
	}, nil
}

// RunScoutAndSummarize はScout実行後にサマリーを生成するワークフロー。
// 推し登録直後の初回実行（ノード未発見）ではネットワーク発見を一度だけ
// 行い、その後ネットワーク併用Scoutを実行する。サマリーは直近の収集情報
// 最大10件から生成する。
func (a *RootAgent) RunScoutAndSummarize(ctx context.Context, oshiID string) (*ScoutSummaryResult, error) {
	start := time.Now()
	defer func() { a.collector.RecordWorkflowDuration("scout_summarize", time.Since(start)) }()

	a.logger.Info("Scout+サマリーワークフローを開始します", slog.String("oshi_id", oshiID))

	oshi, err := a.resolveOshi(ctx, oshiID)
	if err != nil {
		return nil, err
	}

	// 初回実行判定: ノードが1件もなければ発見を先に走らせる
	discoveredCount := 0
	existing, err := a.networkAgent.nodeRepo.ListByOshi(ctx, oshi.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		nodes, err := a.networkAgent.Discover(ctx, oshi)
		if err != nil {
			return nil, err
		}
		discoveredCount = len(nodes)
	}

	scoutResult, err := a.RunNetworkScout(ctx, oshiID)
	if err != nil {
		return nil, err
	}

	items, err := a.itemRepo.ListByOshi(ctx, oshi.ID, 10)
	if err != nil {
		return nil, err
	}
	summaryItems := make([]gemini.SummaryItem, 0, len(items))
	for _, item := range items {
		summaryItems = append(summaryItems, gemini.SummaryItem{Title: item.Title, URL: item.URL})
	}

	summary := a.summarizer.GenerateSummary(ctx, oshi.Name, summaryItems)

	a.logger.Info("Scout+サマリーワークフローが完了しました",
		slog.String("oshi_id", oshiID),
		slog.Int("collected_count", scoutResult.TotalCount),
		slog.Int("discovered_count", discoveredCount),
	)
	return &ScoutSummaryResult{
		NetworkScoutResult: *scoutResult,
		DiscoveredCount:    discoveredCount,
		Summary:            summary,
	}, nil
}

// RunAllScouts は全推しのScoutワークフローを実行する。
// 1推しの失敗は結果リストに記録するだけで残りの処理は継続する。
func (a *RootAgent) RunAllScouts(ctx context.Context) (*AllScoutsResult, error) {
	start := time.Now()
	defer func() { a.collector.RecordWorkflowDuration("all_scouts", time.Since(start)) }()

	a.logger.Info("全推しのScoutワークフローを開始します")

	oshis, err := a.oshiRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &AllScoutsResult{
		TotalOshis: len(oshis),
		Results:    []OshiScoutOutcome{},
	}

	for _, oshi := range oshis {
		scoutResult, err := a.RunScoutWorkflow(ctx, oshi.ID)
		if err != nil {
			a.logger.Error("推しのScoutワークフローに失敗しました",
				slog.String("oshi_id", oshi.ID),
				slog.String("oshi_name", oshi.Name),
				slog.String("error", err.Error()),
			)
			result.Results = append(result.Results, OshiScoutOutcome{
				OshiID:   oshi.ID,
				OshiName: oshi.Name,
				Error:    err.Error(),
			})
			result.ErrorCount++
			continue
		}

		result.Results = append(result.Results, OshiScoutOutcome{
			OshiID:   oshi.ID,
			OshiName: oshi.Name,
			Result:   scoutResult,
		})
		result.SuccessCount++
	}

	a.logger.Info("全推しのScoutワークフローが完了しました",
		slog.Int("total", result.TotalOshis),
		slog.Int("success", result.SuccessCount),
		slog.Int("errors", result.ErrorCount),
	)
	return result, nil
}
