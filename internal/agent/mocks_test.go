package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hitoshi/oshiscout/internal/gemini"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
	"github.com/hitoshi/oshiscout/internal/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// noopMetrics は何も記録しないメトリクス実装。
type noopMetrics struct{}

func (noopMetrics) RecordSearch(string)                          {}
func (noopMetrics) RecordSearchFailure(string)                   {}
func (noopMetrics) RecordItemsCreated(string, int)               {}
func (noopMetrics) RecordClassification(string)                  {}
func (noopMetrics) RecordClassifyFallback()                      {}
func (noopMetrics) RecordNodesDiscovered(int)                    {}
func (noopMetrics) RecordWorkflowDuration(string, time.Duration) {}

// mockSearcher はSearcherのモック。
type mockSearcher struct {
	searchFunc func(ctx context.Context, query string, num int) ([]search.Result, error)
	queries    []string
}

func (m *mockSearcher) Search(ctx context.Context, query string, num int) ([]search.Result, error) {
	m.queries = append(m.queries, query)
	return m.searchFunc(ctx, query, num)
}

// mockItemRepo はItemRepositoryのインメモリモック。
// check-then-act重複チェックの挙動を再現する。
type mockItemRepo struct {
	items      map[string]*model.CollectedItem // id -> item
	nextID     int
	createErr  error
	findErr    error
	priorities map[string]model.Priority
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{
		items:      map[string]*model.CollectedItem{},
		priorities: map[string]model.Priority{},
	}
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*model.CollectedItem, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.items[id], nil
}

func (m *mockItemRepo) FindByOshiAndURL(ctx context.Context, oshiID, url string) (*model.CollectedItem, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, item := range m.items {
		if item.OshiID == oshiID && item.URL == url {
			return item, nil
		}
	}
	return nil, nil
}

func (m *mockItemRepo) ListByOshi(ctx context.Context, oshiID string, limit int) ([]*model.CollectedItem, error) {
	var items []*model.CollectedItem
	for _, item := range m.items {
		if item.OshiID == oshiID {
			items = append(items, item)
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *mockItemRepo) Create(ctx context.Context, item *model.CollectedItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	item.ID = fmt.Sprintf("item-%d", m.nextID)
	if item.Priority == "" {
		item.Priority = model.PriorityNormal
	}
	item.CollectedAt = time.Now()
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepo) UpdatePriority(ctx context.Context, itemID string, priority model.Priority) (bool, error) {
	item, ok := m.items[itemID]
	if !ok {
		return false, nil
	}
	item.Priority = priority
	m.priorities[itemID] = priority
	return true, nil
}

var _ repository.ItemRepository = (*mockItemRepo)(nil)

// mockNodeRepo はNodeRepositoryのインメモリモック。
type mockNodeRepo struct {
	nodes        []*model.NetworkNode
	nextID       int
	lastSearched map[string]time.Time
	deactivated  map[string]bool
}

func newMockNodeRepo() *mockNodeRepo {
	return &mockNodeRepo{
		lastSearched: map[string]time.Time{},
		deactivated:  map[string]bool{},
	}
}

func (m *mockNodeRepo) FindByID(ctx context.Context, id string) (*model.NetworkNode, error) {
	for _, node := range m.nodes {
		if node.ID == id {
			return node, nil
		}
	}
	return nil, nil
}

func (m *mockNodeRepo) FindByOshiAndName(ctx context.Context, oshiID, name string) (*model.NetworkNode, error) {
	for _, node := range m.nodes {
		if node.OshiID == oshiID && node.Name == name {
			return node, nil
		}
	}
	return nil, nil
}

func (m *mockNodeRepo) ListByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error) {
	var nodes []*model.NetworkNode
	for _, node := range m.nodes {
		if node.OshiID == oshiID {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func (m *mockNodeRepo) ListActiveByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error) {
	var nodes []*model.NetworkNode
	for _, node := range m.nodes {
		if node.OshiID == oshiID && node.IsActive {
			nodes = append(nodes, node)
		}
	}
	return nodes, nil
}

func (m *mockNodeRepo) Create(ctx context.Context, node *model.NetworkNode) error {
	m.nextID++
	node.ID = fmt.Sprintf("node-%d", m.nextID)
	node.DiscoveredAt = time.Now()
	m.nodes = append(m.nodes, node)
	return nil
}

func (m *mockNodeRepo) UpdateLastSearched(ctx context.Context, nodeID string, at time.Time) error {
	m.lastSearched[nodeID] = at
	return nil
}

func (m *mockNodeRepo) Deactivate(ctx context.Context, nodeID string) (bool, error) {
	for _, node := range m.nodes {
		if node.ID == nodeID {
			node.IsActive = false
			m.deactivated[nodeID] = true
			return true, nil
		}
	}
	return false, nil
}

var _ repository.NodeRepository = (*mockNodeRepo)(nil)

// mockOshiRepo はOshiRepositoryのインメモリモック。
type mockOshiRepo struct {
	oshis []*model.Oshi
}

func (m *mockOshiRepo) FindByID(ctx context.Context, id string) (*model.Oshi, error) {
	for _, oshi := range m.oshis {
		if oshi.ID == id {
			return oshi, nil
		}
	}
	return nil, nil
}

func (m *mockOshiRepo) ListAll(ctx context.Context) ([]*model.Oshi, error) {
	return m.oshis, nil
}

func (m *mockOshiRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Oshi, error) {
	var oshis []*model.Oshi
	for _, oshi := range m.oshis {
		if oshi.UserID == userID {
			oshis = append(oshis, oshi)
		}
	}
	return oshis, nil
}

func (m *mockOshiRepo) Create(ctx context.Context, oshi *model.Oshi) error {
	m.oshis = append(m.oshis, oshi)
	return nil
}

func (m *mockOshiRepo) Update(ctx context.Context, oshi *model.Oshi) error { return nil }
func (m *mockOshiRepo) Delete(ctx context.Context, id string) error        { return nil }

var _ repository.OshiRepository = (*mockOshiRepo)(nil)

// mockClassifier はUrgencyClassifierのモック。
// 呼び出し順にresponsesを返し、使い切った後はnormalを返す。
type mockClassifier struct {
	responses []model.Priority
	calls     int
}

func (m *mockClassifier) ClassifyPriority(ctx context.Context, title, url, snippet string) model.Priority {
	m.calls++
	if m.calls <= len(m.responses) {
		return m.responses[m.calls-1]
	}
	return model.PriorityNormal
}

// mockDiscoverer はEntityDiscovererのモック。
type mockDiscoverer struct {
	candidates []gemini.Candidate
	err        error
	calls      int
}

func (m *mockDiscoverer) DiscoverEntities(ctx context.Context, oshiName, category string) ([]gemini.Candidate, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

// mockSummarizer はSummarizerのモック。
type mockSummarizer struct {
	summary string
	items   []gemini.SummaryItem
}

func (m *mockSummarizer) GenerateSummary(ctx context.Context, oshiName string, items []gemini.SummaryItem) string {
	m.items = items
	return m.summary
}
