package agent

import (
	"context"
	"log/slog"

	"github.com/hitoshi/oshiscout/internal/metrics"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// UrgencyClassifier は収集情報の重要度判定を行うインターフェース。
// 判定失敗時はnormalを返す実装であること。
type UrgencyClassifier interface {
	ClassifyPriority(ctx context.Context, title, url, snippet string) model.Priority
}

// PriorityAgent は収集情報の重要度を判定するエージェント。
type PriorityAgent struct {
	itemRepo   repository.ItemRepository
	classifier UrgencyClassifier
	collector  metrics.MetricsCollector
	logger     *slog.Logger
}

// NewPriorityAgent はPriorityAgentの新しいインスタンスを生成する。
func NewPriorityAgent(
	itemRepo repository.ItemRepository,
	classifier UrgencyClassifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *PriorityAgent {
	return &PriorityAgent{
		itemRepo:   itemRepo,
		classifier: classifier,
		collector:  collector,
		logger:     logger,
	}
}

// Classify は指定IDの収集情報群の重要度を入力順に判定して保存する。
// 見つからないIDは黙ってスキップし、結果マップにも含めない。
// 1件の判定失敗はnormalとして保存し、バッチ全体は継続する。
func (a *PriorityAgent) Classify(ctx context.Context, itemIDs []string) (map[string]model.Priority, error) {
	a.logger.Info("重要度判定を開始します", slog.Int("item_count", len(itemIDs)))

	results := map[string]model.Priority{}
	for _, id := range itemIDs {
		item, err := a.itemRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if item == nil {
			a.logger.Debug("収集情報が見つからないためスキップします", slog.String("item_id", id))
			continue
		}

		priority := a.classifier.ClassifyPriority(ctx, item.Title, item.URL, item.Snippet)
		a.collector.RecordClassification(string(priority))

		if _, err := a.itemRepo.UpdatePriority(ctx, id, priority); err != nil {
			return nil, err
		}
		results[id] = priority
	}

	a.logger.Info("重要度判定が完了しました",
		slog.Int("item_count", len(itemIDs)),
		slog.Int("classified_count", len(results)),
	)
	return results, nil
}
