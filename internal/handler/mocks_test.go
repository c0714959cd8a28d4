package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/oshiscout/internal/agent"
	"github.com/hitoshi/oshiscout/internal/middleware"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// --- モック定義 ---

// mockOshiRepo はrepository.OshiRepositoryのモック実装。
type mockOshiRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Oshi, error)
	listAllFn      func(ctx context.Context) ([]*model.Oshi, error)
	listByUserIDFn func(ctx context.Context, userID string) ([]*model.Oshi, error)
	createFn       func(ctx context.Context, oshi *model.Oshi) error
	updateFn       func(ctx context.Context, oshi *model.Oshi) error
	deleteFn       func(ctx context.Context, id string) error
}

func (m *mockOshiRepo) FindByID(ctx context.Context, id string) (*model.Oshi, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockOshiRepo) ListAll(ctx context.Context) ([]*model.Oshi, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockOshiRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Oshi, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockOshiRepo) Create(ctx context.Context, oshi *model.Oshi) error {
	if m.createFn != nil {
		return m.createFn(ctx, oshi)
	}
	return nil
}

func (m *mockOshiRepo) Update(ctx context.Context, oshi *model.Oshi) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, oshi)
	}
	return nil
}

func (m *mockOshiRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// mockItemRepo はrepository.ItemRepositoryのモック実装。
type mockItemRepo struct {
	listByOshiFn func(ctx context.Context, oshiID string, limit int) ([]*model.CollectedItem, error)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id string) (*model.CollectedItem, error) {
	return nil, nil
}

func (m *mockItemRepo) FindByOshiAndURL(ctx context.Context, oshiID, url string) (*model.CollectedItem, error) {
	return nil, nil
}

func (m *mockItemRepo) ListByOshi(ctx context.Context, oshiID string, limit int) ([]*model.CollectedItem, error) {
	if m.listByOshiFn != nil {
		return m.listByOshiFn(ctx, oshiID, limit)
	}
	return nil, nil
}

func (m *mockItemRepo) Create(ctx context.Context, item *model.CollectedItem) error {
	return nil
}

func (m *mockItemRepo) UpdatePriority(ctx context.Context, itemID string, priority model.Priority) (bool, error) {
	return true, nil
}

// mockNodeRepo はrepository.NodeRepositoryのモック実装。
type mockNodeRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.NetworkNode, error)
	listByOshiFn func(ctx context.Context, oshiID string) ([]*model.NetworkNode, error)
	deactivateFn func(ctx context.Context, nodeID string) (bool, error)
}

func (m *mockNodeRepo) FindByID(ctx context.Context, id string) (*model.NetworkNode, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockNodeRepo) FindByOshiAndName(ctx context.Context, oshiID, name string) (*model.NetworkNode, error) {
	return nil, nil
}

func (m *mockNodeRepo) ListByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error) {
	if m.listByOshiFn != nil {
		return m.listByOshiFn(ctx, oshiID)
	}
	return nil, nil
}

func (m *mockNodeRepo) ListActiveByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error) {
	return nil, nil
}

func (m *mockNodeRepo) Create(ctx context.Context, node *model.NetworkNode) error {
	return nil
}

func (m *mockNodeRepo) UpdateLastSearched(ctx context.Context, nodeID string, at time.Time) error {
	return nil
}

func (m *mockNodeRepo) Deactivate(ctx context.Context, nodeID string) (bool, error) {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, nodeID)
	}
	return true, nil
}

// mockExpenseRepo はrepository.ExpenseRepositoryのモック実装。
type mockExpenseRepo struct {
	createFn             func(ctx context.Context, expense *model.Expense) error
	listByUserAndMonthFn func(ctx context.Context, userID string, year, month int) ([]*model.Expense, error)
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	if m.createFn != nil {
		return m.createFn(ctx, expense)
	}
	expense.ID = "expense-1"
	return nil
}

func (m *mockExpenseRepo) ListByUserAndMonth(ctx context.Context, userID string, year, month int) ([]*model.Expense, error) {
	if m.listByUserAndMonthFn != nil {
		return m.listByUserAndMonthFn(ctx, userID, year, month)
	}
	return nil, nil
}

// mockWorkflowRunner はWorkflowRunnerのモック実装。
type mockWorkflowRunner struct {
	runScoutWorkflowFn     func(ctx context.Context, oshiID string) (*agent.ScoutResult, error)
	runNetworkScoutFn      func(ctx context.Context, oshiID string) (*agent.NetworkScoutResult, error)
	discoverNetworkFn      func(ctx context.Context, oshiID string) (*agent.DiscoverResult, error)
	runScoutAndSummarizeFn func(ctx context.Context, oshiID string) (*agent.ScoutSummaryResult, error)
	runAllScoutsFn         func(ctx context.Context) (*agent.AllScoutsResult, error)
}

func (m *mockWorkflowRunner) RunScoutWorkflow(ctx context.Context, oshiID string) (*agent.ScoutResult, error) {
	if m.runScoutWorkflowFn != nil {
		return m.runScoutWorkflowFn(ctx, oshiID)
	}
	return &agent.ScoutResult{}, nil
}

func (m *mockWorkflowRunner) RunNetworkScout(ctx context.Context, oshiID string) (*agent.NetworkScoutResult, error) {
	if m.runNetworkScoutFn != nil {
		return m.runNetworkScoutFn(ctx, oshiID)
	}
	return &agent.NetworkScoutResult{}, nil
}

func (m *mockWorkflowRunner) DiscoverNetwork(ctx context.Context, oshiID string) (*agent.DiscoverResult, error) {
	if m.discoverNetworkFn != nil {
		return m.discoverNetworkFn(ctx, oshiID)
	}
	return &agent.DiscoverResult{}, nil
}

func (m *mockWorkflowRunner) RunScoutAndSummarize(ctx context.Context, oshiID string) (*agent.ScoutSummaryResult, error) {
	if m.runScoutAndSummarizeFn != nil {
		return m.runScoutAndSummarizeFn(ctx, oshiID)
	}
	return &agent.ScoutSummaryResult{}, nil
}

func (m *mockWorkflowRunner) RunAllScouts(ctx context.Context) (*agent.AllScoutsResult, error) {
	if m.runAllScoutsFn != nil {
		return m.runAllScoutsFn(ctx)
	}
	return &agent.AllScoutsResult{}, nil
}

// mockBudgetReporter はBudgetReporterのモック実装。
type mockBudgetReporter struct {
	generateReportFn func(ctx context.Context, userID string, year, month int) (*agent.BudgetReport, error)
}

func (m *mockBudgetReporter) GenerateReport(ctx context.Context, userID string, year, month int) (*agent.BudgetReport, error) {
	if m.generateReportFn != nil {
		return m.generateReportFn(ctx, userID, year, month)
	}
	return &agent.BudgetReport{}, nil
}

// mockSweeper はFeedSweeperのモック実装。
type mockSweeper struct {
	sweepFn func(ctx context.Context, oshi *model.Oshi) ([]string, error)
}

func (m *mockSweeper) Sweep(ctx context.Context, oshi *model.Oshi) ([]string, error) {
	if m.sweepFn != nil {
		return m.sweepFn(ctx, oshi)
	}
	return []string{}, nil
}

// コンパイル時のインターフェース実装チェック
var (
	_ repository.OshiRepository    = (*mockOshiRepo)(nil)
	_ repository.ItemRepository    = (*mockItemRepo)(nil)
	_ repository.NodeRepository    = (*mockNodeRepo)(nil)
	_ repository.ExpenseRepository = (*mockExpenseRepo)(nil)
	_ WorkflowRunner               = (*mockWorkflowRunner)(nil)
	_ BudgetReporter               = (*mockBudgetReporter)(nil)
	_ FeedSweeper                  = (*mockSweeper)(nil)
)

// --- テストヘルパー ---

// testOshi はテスト用の推しを返す。
func testOshi() *model.Oshi {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &model.Oshi{
		ID:          "oshi-1",
		UserID:      "user-1",
		Name:        "星野テスト",
		Category:    "アイドル",
		OfficialURL: "https://example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ownedOshiRepo はtestOshi()だけを知っているモックを返す。
func ownedOshiRepo() *mockOshiRepo {
	return &mockOshiRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Oshi, error) {
			if id == "oshi-1" {
				return testOshi(), nil
			}
			return nil, nil
		},
	}
}

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithUserID(r.Context(), userID)
	return r.WithContext(ctx)
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}
