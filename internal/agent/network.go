package agent

import (
	"context"
	"log/slog"

	"github.com/hitoshi/oshiscout/internal/gemini"
	"github.com/hitoshi/oshiscout/internal/metrics"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// EntityDiscoverer はネットワーク候補の提案を行うインターフェース。
type EntityDiscoverer interface {
	DiscoverEntities(ctx context.Context, oshiName, category string) ([]gemini.Candidate, error)
}

// NetworkAgent は推しの関連エンティティを発見・管理するエージェント。
type NetworkAgent struct {
	nodeRepo   repository.NodeRepository
	discoverer EntityDiscoverer
	collector  metrics.MetricsCollector
	logger     *slog.Logger
}

// NewNetworkAgent はNetworkAgentの新しいインスタンスを生成する。
func NewNetworkAgent(
	nodeRepo repository.NodeRepository,
	discoverer EntityDiscoverer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *NetworkAgent {
	return &NetworkAgent{
		nodeRepo:   nodeRepo,
		discoverer: discoverer,
		collector:  collector,
		logger:     logger,
	}
}

// Discover は推しの関連エンティティをLLMで発見してノードとして登録する。
// 名前が空の候補と同名の既存ノードはスキップする（同一応答内の重複も
// 最初の1件だけが登録される）。不正なkind/ringは安全な既定値に倒す。
// 新規作成されたノードのリストを返す。
func (a *NetworkAgent) Discover(ctx context.Context, oshi *model.Oshi) ([]*model.NetworkNode, error) {
	a.logger.Info("ネットワーク発見を開始します",
		slog.String("oshi_id", oshi.ID),
		slog.String("oshi_name", oshi.Name),
	)

	candidates, err := a.discoverer.DiscoverEntities(ctx, oshi.Name, oshi.Category)
	if err != nil {
		return nil, err
	}

	created := []*model.NetworkNode{}
	for _, candidate := range candidates {
		if candidate.Name == "" {
			continue
		}

		existing, err := a.nodeRepo.FindByOshiAndName(ctx, oshi.ID, candidate.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			a.logger.Debug("同名ノードが既に存在するためスキップします",
				slog.String("oshi_id", oshi.ID),
				slog.String("name", candidate.Name),
			)
			continue
		}

		node := &model.NetworkNode{
			OshiID:        oshi.ID,
			Name:          candidate.Name,
			Kind:          model.ParseNodeKind(candidate.Kind),
			Ring:          model.ParseNodeRing(candidate.Ring),
			Relationship:  model.TruncateRelationship(candidate.Relationship),
			SearchQueries: candidate.SearchQueries,
			IsActive:      true,
		}
		if err := a.nodeRepo.Create(ctx, node); err != nil {
			return nil, err
		}
		created = append(created, node)
	}

	a.collector.RecordNodesDiscovered(len(created))
	a.logger.Info("ネットワーク発見が完了しました",
		slog.String("oshi_id", oshi.ID),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("created_count", len(created)),
	)
	return created, nil
}
