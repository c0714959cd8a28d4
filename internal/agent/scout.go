package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/oshiscout/internal/metrics"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
	"github.com/hitoshi/oshiscout/internal/search"
)

const (
	// directSearchResults は直接収集の1クエリあたり最大取得件数。
	directSearchResults = 10
	// nodeSearchResults はノード経由収集の1クエリあたり最大取得件数。
	nodeSearchResults = 5
)

// Searcher はWeb検索のインターフェース。
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]search.Result, error)
}

// ScoutAgent は推しの情報を収集するエージェント。
// 直接収集（カテゴリ別クエリ）とネットワーク経由収集の2経路を持つ。
type ScoutAgent struct {
	itemRepo  repository.ItemRepository
	nodeRepo  repository.NodeRepository
	searcher  Searcher
	collector metrics.MetricsCollector
	logger    *slog.Logger
}

// NewScoutAgent はScoutAgentの新しいインスタンスを生成する。
// nodeRepoがnilの場合、ネットワーク経由収集は何もせず空を返す。
func NewScoutAgent(
	itemRepo repository.ItemRepository,
	nodeRepo repository.NodeRepository,
	searcher Searcher,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *ScoutAgent {
	return &ScoutAgent{
		itemRepo:  itemRepo,
		nodeRepo:  nodeRepo,
		searcher:  searcher,
		collector: collector,
		logger:    logger,
	}
}

// Collect は推しの情報を直接収集する。
// カテゴリ別クエリで検索し、実行内・永続化済みの二段階でURL重複を排除して
// 新規作成した収集情報のIDリストを返す（発見順を保持する）。
// 1クエリの検索失敗は収集全体を中断する（クライアント側の再試行で回復しなかった
// 失敗は結果の欠落として扱うより呼び出し元へ伝える）。
func (a *ScoutAgent) Collect(ctx context.Context, oshi *model.Oshi) ([]string, error) {
	a.logger.Info("情報収集を開始します",
		slog.String("oshi_id", oshi.ID),
		slog.String("oshi_name", oshi.Name),
		slog.String("category", oshi.Category),
	)

	queries := BuildQueries(oshi.Name, oshi.Category, oshi.OfficialURL)

	// 実行内重複排除: 同一URLは最初のクエリの結果だけを採用する
	var merged []search.Result
	seenURLs := map[string]bool{}
	for _, query := range queries {
		a.collector.RecordSearch(query)
		results, err := a.searcher.Search(ctx, query, directSearchResults)
		if err != nil {
			a.collector.RecordSearchFailure(query)
			return nil, fmt.Errorf("検索に失敗しました (query=%s): %w", query, err)
		}
		for _, r := range results {
			if !seenURLs[r.URL] {
				seenURLs[r.URL] = true
				merged = append(merged, r)
			}
		}
	}

	if len(merged) == 0 {
		a.logger.Info("検索結果が0件でした", slog.String("oshi_id", oshi.ID))
		return []string{}, nil
	}

	newIDs, err := a.saveNewItems(ctx, oshi.ID, merged, "")
	if err != nil {
		return nil, err
	}

	a.collector.RecordItemsCreated("direct", len(newIDs))
	a.logger.Info("情報収集が完了しました",
		slog.String("oshi_id", oshi.ID),
		slog.Int("new_count", len(newIDs)),
		slog.Int("total_results", len(merged)),
	)
	return newIDs, nil
}

// CollectFromNetwork はネットワークノード経由で情報を収集する。
// アクティブなノードを発見順に巡回し、各ノードの検索クエリ（未設定なら
// 「<推し名> <ノード名>」）で検索する。URL重複はネットワーク巡回全体で
// 共有のseenセットにより排除する。処理したノードは結果の有無に関わらず
// 最終検索日時を更新する。
// ノードリポジトリ未設定の場合はエラーにせず空を返す。
func (a *ScoutAgent) CollectFromNetwork(ctx context.Context, oshi *model.Oshi) ([]string, error) {
	if a.nodeRepo == nil {
		a.logger.Warn("ノードリポジトリが未設定のためネットワーク収集をスキップします",
			slog.String("oshi_id", oshi.ID),
		)
		return []string{}, nil
	}

	a.logger.Info("ネットワーク経由の情報収集を開始します",
		slog.String("oshi_id", oshi.ID),
		slog.String("oshi_name", oshi.Name),
	)

	nodes, err := a.nodeRepo.ListActiveByOshi(ctx, oshi.ID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		a.logger.Info("アクティブなノードがありません", slog.String("oshi_id", oshi.ID))
		return []string{}, nil
	}

	var allNewIDs []string
	seenURLs := map[string]bool{}

	for _, node := range nodes {
		results, err := a.searchNode(ctx, node, oshi.Name, seenURLs)
		if err != nil {
			return nil, err
		}

		newIDs, err := a.saveNewItems(ctx, oshi.ID, results, node.Name)
		if err != nil {
			return nil, err
		}
		allNewIDs = append(allNewIDs, newIDs...)

		if err := a.nodeRepo.UpdateLastSearched(ctx, node.ID, time.Now()); err != nil {
			return nil, err
		}
	}

	a.collector.RecordItemsCreated("network", len(allNewIDs))
	a.logger.Info("ネットワーク経由の情報収集が完了しました",
		slog.String("oshi_id", oshi.ID),
		slog.Int("node_count", len(nodes)),
		slog.Int("new_count", len(allNewIDs)),
	)
	if allNewIDs == nil {
		allNewIDs = []string{}
	}
	return allNewIDs, nil
}

// searchNode はノード単体の検索を実行する。
// seenURLsはネットワーク巡回全体で共有される。
func (a *ScoutAgent) searchNode(
	ctx context.Context,
	node *model.NetworkNode,
	oshiName string,
	seenURLs map[string]bool,
) ([]search.Result, error) {
	queries := node.SearchQueries
	if len(queries) == 0 {
		queries = []string{fmt.Sprintf("%s %s", oshiName, node.Name)}
	}

	var results []search.Result
	for _, query := range queries {
		a.collector.RecordSearch(query)
		found, err := a.searcher.Search(ctx, query, nodeSearchResults)
		if err != nil {
			a.collector.RecordSearchFailure(query)
			return nil, fmt.Errorf("ノード検索に失敗しました (node=%s, query=%s): %w", node.Name, query, err)
		}
		for _, r := range found {
			if r.URL != "" && !seenURLs[r.URL] {
				seenURLs[r.URL] = true
				results = append(results, r)
			}
		}
	}

	return results, nil
}

// saveNewItems は検索結果のうち未永続化のものだけを保存し、新規IDを返す。
func (a *ScoutAgent) saveNewItems(
	ctx context.Context,
	oshiID string,
	results []search.Result,
	sourceNode string,
) ([]string, error) {
	newIDs := []string{}
	for _, r := range results {
		existing, err := a.itemRepo.FindByOshiAndURL(ctx, oshiID, r.URL)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			a.logger.Debug("既存URLのためスキップします",
				slog.String("oshi_id", oshiID),
				slog.String("url", r.URL),
			)
			continue
		}

		item := &model.CollectedItem{
			OshiID:     oshiID,
			Title:      r.Title,
			URL:        r.URL,
			Snippet:    r.Snippet,
			SourceNode: sourceNode,
		}
		if err := a.itemRepo.Create(ctx, item); err != nil {
			return nil, err
		}
		newIDs = append(newIDs, item.ID)
	}
	return newIDs, nil
}
