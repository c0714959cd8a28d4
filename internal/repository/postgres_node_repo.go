package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/oshiscout/internal/model"
)

// PostgresNodeRepo はPostgreSQLを使用したネットワークノードリポジトリ。
type PostgresNodeRepo struct {
	db *sql.DB
}

// NewPostgresNodeRepo はPostgresNodeRepoを生成する。
func NewPostgresNodeRepo(db *sql.DB) *PostgresNodeRepo {
	return &PostgresNodeRepo{db: db}
}

// FindByID は指定IDのノードを取得する。見つからない場合はnilを返す。
func (r *PostgresNodeRepo) FindByID(ctx context.Context, id string) (*model.NetworkNode, error) {
	node, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, oshi_id, name, kind, ring, relationship, search_queries,
		        is_active, discovered_at, last_searched_at
		 FROM network_nodes WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("ノードの取得に失敗しました: %w", err)
	}
	return node, nil
}

// FindByOshiAndName はoshi_idとノード名でノードを検索する。
func (r *PostgresNodeRepo) FindByOshiAndName(ctx context.Context, oshiID, name string) (*model.NetworkNode, error) {
	node, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, oshi_id, name, kind, ring, relationship, search_queries,
		        is_active, discovered_at, last_searched_at
		 FROM network_nodes WHERE oshi_id = $1 AND name = $2`,
		oshiID, name,
	))
	if err != nil {
		return nil, fmt.Errorf("名前によるノードの検索に失敗しました: %w", err)
	}
	return node, nil
}

func (r *PostgresNodeRepo) scanOne(row *sql.Row) (*model.NetworkNode, error) {
	node := &model.NetworkNode{}
	var kind string
	var ring int
	var lastSearchedAt sql.NullTime

	err := row.Scan(
		&node.ID, &node.OshiID, &node.Name, &kind, &ring, &node.Relationship,
		pq.Array(&node.SearchQueries), &node.IsActive, &node.DiscoveredAt, &lastSearchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	node.Kind = model.ParseNodeKind(kind)
	node.Ring = model.ParseNodeRing(ring)
	if lastSearchedAt.Valid {
		node.LastSearchedAt = &lastSearchedAt.Time
	}
	return node, nil
}

// ListByOshi は推しの全ノードをring昇順・discovered_at昇順で取得する。
func (r *PostgresNodeRepo) ListByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, oshi_id, name, kind, ring, relationship, search_queries,
		        is_active, discovered_at, last_searched_at
		 FROM network_nodes WHERE oshi_id = $1
		 ORDER BY ring ASC, discovered_at ASC`,
		oshiID,
	)
	if err != nil {
		return nil, fmt.Errorf("ノード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// ListActiveByOshi はアクティブなノードをdiscovered_at昇順で取得する。
func (r *PostgresNodeRepo) ListActiveByOshi(ctx context.Context, oshiID string) ([]*model.NetworkNode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, oshi_id, name, kind, ring, relationship, search_queries,
		        is_active, discovered_at, last_searched_at
		 FROM network_nodes WHERE oshi_id = $1 AND is_active = TRUE
		 ORDER BY discovered_at ASC`,
		oshiID,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティブノード一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]*model.NetworkNode, error) {
	var nodes []*model.NetworkNode
	for rows.Next() {
		node := &model.NetworkNode{}
		var kind string
		var ring int
		var lastSearchedAt sql.NullTime

		if err := rows.Scan(
			&node.ID, &node.OshiID, &node.Name, &kind, &ring, &node.Relationship,
			pq.Array(&node.SearchQueries), &node.IsActive, &node.DiscoveredAt, &lastSearchedAt,
		); err != nil {
			return nil, fmt.Errorf("ノード行の読み取りに失敗しました: %w", err)
		}

		node.Kind = model.ParseNodeKind(kind)
		node.Ring = model.ParseNodeRing(ring)
		if lastSearchedAt.Valid {
			node.LastSearchedAt = &lastSearchedAt.Time
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ノード一覧の走査に失敗しました: %w", err)
	}
	return nodes, nil
}

// Create は新規ノードを作成する。
// relationshipは保存前に上限長へ切り詰める。
func (r *PostgresNodeRepo) Create(ctx context.Context, node *model.NetworkNode) error {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if node.DiscoveredAt.IsZero() {
		node.DiscoveredAt = time.Now()
	}
	node.Relationship = model.TruncateRelationship(node.Relationship)

	queries := node.SearchQueries
	if queries == nil {
		queries = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO network_nodes (id, oshi_id, name, kind, ring, relationship,
		                            search_queries, is_active, discovered_at, last_searched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		node.ID, node.OshiID, node.Name, string(node.Kind), int(node.Ring),
		node.Relationship, pq.Array(queries), node.IsActive, node.DiscoveredAt,
		node.LastSearchedAt,
	)
	if err != nil {
		return fmt.Errorf("ノードの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateLastSearched はノードの最終検索日時を更新する。
func (r *PostgresNodeRepo) UpdateLastSearched(ctx context.Context, nodeID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE network_nodes SET last_searched_at = $2 WHERE id = $1`,
		nodeID, at,
	)
	if err != nil {
		return fmt.Errorf("最終検索日時の更新に失敗しました: %w", err)
	}
	return nil
}

// Deactivate はノードを監視対象から外す。対象が存在しない場合はfalseを返す。
func (r *PostgresNodeRepo) Deactivate(ctx context.Context, nodeID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE network_nodes SET is_active = FALSE WHERE id = $1`,
		nodeID,
	)
	if err != nil {
		return false, fmt.Errorf("ノードの無効化に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ノード無効化の結果確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ NodeRepository = (*PostgresNodeRepo)(nil)
