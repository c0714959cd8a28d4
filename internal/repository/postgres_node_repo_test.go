package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/oshiscout/internal/model"
)

// 各リポジトリが対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ ItemRepository = (*PostgresItemRepo)(nil)
	var _ NodeRepository = (*PostgresNodeRepo)(nil)
	var _ ExpenseRepository = (*PostgresExpenseRepo)(nil)
}

// NewPostgresNodeRepoが正しく初期化されることを検証
func TestNewPostgresNodeRepo_Initializes(t *testing.T) {
	repo := NewPostgresNodeRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NetworkNodeモデルのフィールドが正しく構築されることを検証
func TestPostgresNodeRepo_NodeModel_Fields(t *testing.T) {
	lastSearched := time.Now()
	node := &model.NetworkNode{
		ID:             "node-id-1",
		OshiID:         "oshi-id-1",
		Name:           "所属事務所",
		Kind:           model.NodeKindOrganization,
		Ring:           model.RingInner,
		Relationship:   "所属事務所の公式アカウント",
		SearchQueries:  []string{"所属事務所 発表"},
		IsActive:       true,
		LastSearchedAt: &lastSearched,
	}

	if node.Kind != model.NodeKindOrganization {
		t.Errorf("node.Kind = %q, want %q", node.Kind, model.NodeKindOrganization)
	}
	if node.Ring != model.RingInner {
		t.Errorf("node.Ring = %d, want %d", node.Ring, model.RingInner)
	}
	if !node.IsActive {
		t.Error("node should be active")
	}
}

// NetworkNodeのLastSearchedAtがnil許容であることを検証
func TestPostgresNodeRepo_NodeModel_NilLastSearchedAt(t *testing.T) {
	node := &model.NetworkNode{
		ID:     "node-id-2",
		OshiID: "oshi-id-1",
		Name:   "未探索ノード",
		Kind:   model.NodeKindFanAccount,
		Ring:   model.RingOuter,
	}

	if node.LastSearchedAt != nil {
		t.Error("last_searched_at should be nil by default")
	}
}
