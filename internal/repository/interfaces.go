// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/oshiscout/internal/model"
)

// OshiRepository は推しデータの永続化インターフェース。
type OshiRepository interface {
	// FindByID は指定IDの推しを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Oshi, error)

	// ListAll は全推しを取得する。scout-all（定期実行トリガー）用。
	ListAll(ctx context.Context) ([]*model.Oshi, error)

	// ListByUserID はユーザーの全推しを取得する。
	ListByUserID(ctx context.Context, userID string) ([]*model.Oshi, error)

	// Create は推しを作成する。IDが空の場合は生成し、タイムスタンプを設定する。
	Create(ctx context.Context, oshi *model.Oshi) error

	// Update は推しの属性（name, category, official_url, notes）を更新する。
	Update(ctx context.Context, oshi *model.Oshi) error

	// Delete は指定IDの推しを削除する。
	// 配下の収集情報・ノードの掃除は行わない（論理的カスケード）。
	Delete(ctx context.Context, id string) error
}

// ItemRepository は収集情報の永続化インターフェース。
// (oshi_id, url) のルックアップが重複排除の基盤となる。
type ItemRepository interface {
	// FindByID は指定IDの収集情報を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CollectedItem, error)

	// FindByOshiAndURL は推しIDとURLで収集情報を検索する。
	// 永続化済み重複チェックに使用する。見つからない場合はnilを返す。
	FindByOshiAndURL(ctx context.Context, oshiID, url string) (*model.CollectedItem, error)

	// ListByOshi は推しの収集情報をcollected_at降順で取得する。
	// limitが0以下の場合は全件を返す。
	ListByOshi(ctx context.Context, oshiID string, limit int) ([]*model.CollectedItem, error)

	// Create は収集情報を作成する。IDが空の場合は生成し、
	// priorityをnormal、タイムスタンプを現在時刻に設定する。
	Create(ctx context.Context, item *model.CollectedItem) error

	// UpdatePriority は収集情報の重要度を更新する。
	// 対象が存在しない場合はfalseを返す（エラーにはしない）。
	UpdatePriority(ctx context.Context, itemID string, priority model.Priority) (bool, error)
}

// NodeRepository はネットワークノードの永続化インターフェース。
// (oshi_id, name) のルックアップが名前重複排除の基盤となる。
type NodeRepository interface {
	// FindByID は指定IDのノードを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.NetworkNode, error)

	// FindByOshiAndName は推しIDとノード名でノードを検索する。
	// 発見時の名前重複チェックに使用する。見つからない場合はnilを返す。
	FindByOshiAndName(ctx context.Context, oshiID, name string) (*model.NetworkNode, error)

	// ListByOshi は推しの全ノードをring昇順・discovered_at昇順で取得する。
	ListByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error)

	// ListActiveByOshi はアクティブなノードをdiscovered_at昇順で取得する。
	// ネットワーク収集の巡回順序はこの並びに従う。
	ListActiveByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error)

	// Create はノードを作成する。IDが空の場合は生成し、
	// discovered_atを現在時刻、last_searched_atをnilに設定する。
	Create(ctx context.Context, node *model.NetworkNode) error

	// UpdateLastSearched はノードの最終検索日時を更新する。
	UpdateLastSearched(ctx context.Context, nodeID string, at time.Time) error

	// Deactivate はノードを監視対象から外す。物理削除はしない。
	// 対象が存在しない場合はfalseを返す。
	Deactivate(ctx context.Context, nodeID string) (bool, error)
}

// ExpenseRepository は支出データの永続化インターフェース。
type ExpenseRepository interface {
	// Create は支出を作成する。IDが空の場合は生成する。
	Create(ctx context.Context, expense *model.Expense) error

	// ListByUserAndMonth は指定年月の支出をspent_at昇順で取得する。
	ListByUserAndMonth(ctx context.Context, userID string, year, month int) ([]*model.Expense, error)
}
