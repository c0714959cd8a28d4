package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/oshiscout/internal/gemini"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/search"
)

type rootFixture struct {
	oshiRepo   *mockOshiRepo
	itemRepo   *mockItemRepo
	nodeRepo   *mockNodeRepo
	searcher   *mockSearcher
	classifier *mockClassifier
	discoverer *mockDiscoverer
	summarizer *mockSummarizer
	root       *RootAgent
}

func newRootFixture(searchFunc func(ctx context.Context, query string, num int) ([]search.Result, error)) *rootFixture {
	f := &rootFixture{
		oshiRepo:   &mockOshiRepo{},
		itemRepo:   newMockItemRepo(),
		nodeRepo:   newMockNodeRepo(),
		searcher:   &mockSearcher{searchFunc: searchFunc},
		classifier: &mockClassifier{},
		discoverer: &mockDiscoverer{},
		summarizer: &mockSummarizer{summary: "活動まとめです！"},
	}
	logger := testLogger()
	scout := NewScoutAgent(f.itemRepo, f.nodeRepo, f.searcher, noopMetrics{}, logger)
	network := NewNetworkAgent(f.nodeRepo, f.discoverer, noopMetrics{}, logger)
	priority := NewPriorityAgent(f.itemRepo, f.classifier, noopMetrics{}, logger)
	f.root = NewRootAgent(f.oshiRepo, f.itemRepo, scout, network, priority, f.summarizer, noopMetrics{}, logger)
	return f
}

// TestRunScoutWorkflow_CollectAndClassify は収集と判定が連結されることをテストする。
// 2件収集 → urgent/importantの判定結果が返る。
func TestRunScoutWorkflow_CollectAndClassify(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		return []search.Result{
			{Title: "New Song", URL: "https://example.com/1", Snippet: "snippet"},
			{Title: "Live Event", URL: "https://example.com/2", Snippet: "snippet"},
		}, nil
	})
	f.oshiRepo.oshis = []*model.Oshi{testOshi()}
	f.classifier.responses = []model.Priority{model.PriorityUrgent, model.PriorityImportant}

	result, err := f.root.RunScoutWorkflow(context.Background(), "oshi-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if result.CollectedCount != 2 {
		t.Fatalf("収集件数が想定と異なる: %d", result.CollectedCount)
	}
	if result.PriorityResults[result.NewItemIDs[0]] != model.PriorityUrgent {
		t.Errorf("1件目の判定が想定と異なる: %v", result.PriorityResults)
	}
	if result.PriorityResults[result.NewItemIDs[1]] != model.PriorityImportant {
		t.Errorf("2件目の判定が想定と異なる: %v", result.PriorityResults)
	}
	if result.OshiName != "Example Band" {
		t.Errorf("推し名が想定と異なる: %s", result.OshiName)
	}
}

// TestRunScoutWorkflow_OshiNotFound は存在しない推しでNotFoundエラーを返すことをテストする。
func TestRunScoutWorkflow_OshiNotFound(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		return nil, nil
	})

	_, err := f.root.RunScoutWorkflow(context.Background(), "unknown")
	if err == nil {
		t.Fatal("エラーを期待したがnilが返った")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "OSHI_NOT_FOUND" {
		t.Errorf("NotFoundエラーを期待した: %v", err)
	}
}

// TestRunScoutWorkflow_NoNewItemsSkipsClassify は新規0件で判定が呼ばれないことをテストする。
func TestRunScoutWorkflow_NoNewItemsSkipsClassify(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		return nil, nil
	})
	f.oshiRepo.oshis = []*model.Oshi{testOshi()}

	result, err := f.root.RunScoutWorkflow(context.Background(), "oshi-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if result.CollectedCount != 0 || len(result.PriorityResults) != 0 {
		t.Errorf("空の結果を期待した: %+v", result)
	}
	if f.classifier.calls != 0 {
		t.Errorf("判定は呼ばれないべき: %d", f.classifier.calls)
	}
}

// TestRunNetworkScout_UnionOrder は直接収集分が先頭になる和集合が返ることをテストする。
func TestRunNetworkScout_UnionOrder(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		if strings.Contains(query, "ノード") {
			return []search.Result{
				{Title: "ネットワーク記事", URL: "https://example.com/net", Snippet: "s"},
			}, nil
		}
		return []search.Result{
			{Title: "直接記事", URL: "https://example.com/direct", Snippet: "s"},
		}, nil
	})
	f.oshiRepo.oshis = []*model.Oshi{testOshi()}
	f.nodeRepo.Create(context.Background(), &model.NetworkNode{
		OshiID:        "oshi-1",
		Name:          "ノードA",
		SearchQueries: []string{"ノードA クエリ"},
		IsActive:      true,
	})

	result, err := f.root.RunNetworkScout(context.Background(), "oshi-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if result.DirectCount != 1 || result.NetworkCount != 1 || result.TotalCount != 2 {
		t.Fatalf("件数が想定と異なる: %+v", result)
	}
	if f.itemRepo.items[result.NewItemIDs[0]].URL != "https://example.com/direct" {
		t.Errorf("直接収集分が先頭であるべき: %v", result.NewItemIDs)
	}
	if len(result.PriorityResults) != 2 {
		t.Errorf("和集合全体が判定されるべき: %v", result.PriorityResults)
	}
}

// TestRunScoutAndSummarize_FirstRunDiscovers は初回実行（ノードなし）で
// 発見が走ることをテストする。
func TestRunScoutAndSummarize_FirstRunDiscovers(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		return []search.Result{
			{Title: "記事", URL: "https://example.com/1", Snippet: "s"},
		}, nil
	})
	f.oshiRepo.oshis = []*model.Oshi{testOshi()}
	f.discoverer.candidates = []gemini.Candidate{
		{Name: "新ノード", Kind: "member", Ring: 1},
	}

	result, err := f.root.RunScoutAndSummarize(context.Background(), "oshi-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if f.discoverer.calls != 1 {
		t.Errorf("初回は発見が1回走るべき: %d", f.discoverer.calls)
	}
	if result.DiscoveredCount != 1 {
		t.Errorf("発見件数が想定と異なる: %d", result.DiscoveredCount)
	}
	if result.Summary != "活動まとめです！" {
		t.Errorf("サマリーが想定と異なる: %s", result.Summary)
	}
	if len(f.summarizer.items) == 0 {
		t.Error("サマリー生成に収集情報が渡されるべき")
	}
}

// TestRunScoutAndSummarize_SkipsDiscoveryWhenNodesExist はノードが既にあれば
// 発見が走らないことをテストする。
func TestRunScoutAndSummarize_SkipsDiscoveryWhenNodesExist(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		return nil, nil
	})
	f.oshiRepo.oshis = []*model.Oshi{testOshi()}
	f.nodeRepo.Create(context.Background(), &model.NetworkNode{
		OshiID: "oshi-1",
		Name:   "既存ノード",
	})

	result, err := f.root.RunScoutAndSummarize(context.Background(), "oshi-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if f.discoverer.calls != 0 {
		t.Errorf("発見は走らないべき: %d", f.discoverer.calls)
	}
	if result.DiscoveredCount != 0 {
		t.Errorf("発見件数は0であるべき: %d", result.DiscoveredCount)
	}
}

// TestRunAllScouts_IsolatesFailures は1推しの失敗が他を巻き込まないことをテストする。
// 3推し中2番目だけ失敗 → success=2, error=1。
func TestRunAllScouts_IsolatesFailures(t *testing.T) {
	f := newRootFixture(func(ctx context.Context, query string, num int) ([]search.Result, error) {
		if strings.Contains(query, "失敗バンド") {
			return nil, errors.New("search down")
		}
		return []search.Result{
			{Title: "記事 " + query, URL: "https://example.com/" + query, Snippet: "s"},
		}, nil
	})
	f.oshiRepo.oshis = []*model.Oshi{
		{ID: "oshi-1", UserID: "user-1", Name: "バンドA"},
		{ID: "oshi-2", UserID: "user-1", Name: "失敗バンド"},
		{ID: "oshi-3", UserID: "user-1", Name: "バンドC"},
	}

	result, err := f.root.RunAllScouts(context.Background())
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if result.TotalOshis != 3 || result.SuccessCount != 2 || result.ErrorCount != 1 {
		t.Fatalf("集計が想定と異なる: %+v", result)
	}
	if result.Results[1].OshiID != "oshi-2" || result.Results[1].Error == "" {
		t.Errorf("2番目の結果にエラーが記録されるべき: %+v", result.Results[1])
	}
	if result.Results[0].Result == nil || result.Results[2].Result == nil {
		t.Errorf("1番目と3番目は成功結果を持つべき: %+v", result.Results)
	}
}
