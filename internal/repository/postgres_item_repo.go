package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/oshiscout/internal/model"
)

// PostgresItemRepo はPostgreSQLを使用した収集情報リポジトリ。
type PostgresItemRepo struct {
	db *sql.DB
}

// NewPostgresItemRepo はPostgresItemRepoを生成する。
func NewPostgresItemRepo(db *sql.DB) *PostgresItemRepo {
	return &PostgresItemRepo{db: db}
}

// FindByID は指定IDの収集情報を取得する。見つからない場合はnilを返す。
func (r *PostgresItemRepo) FindByID(ctx context.Context, id string) (*model.CollectedItem, error) {
	item := &model.CollectedItem{}
	var priority string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, oshi_id, title, url, snippet, priority, source_node, collected_at, updated_at
		 FROM collected_items WHERE id = $1`,
		id,
	).Scan(
		&item.ID, &item.OshiID, &item.Title, &item.URL, &item.Snippet,
		&priority, &item.SourceNode, &item.CollectedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("収集情報の取得に失敗しました: %w", err)
	}

	item.Priority = model.ParsePriority(priority)
	return item, nil
}

// FindByOshiAndURL はoshi_idとurlで収集情報を検索する。
func (r *PostgresItemRepo) FindByOshiAndURL(ctx context.Context, oshiID, url string) (*model.CollectedItem, error) {
	item := &model.CollectedItem{}
	var priority string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, oshi_id, title, url, snippet, priority, source_node, collected_at, updated_at
		 FROM collected_items WHERE oshi_id = $1 AND url = $2`,
		oshiID, url,
	).Scan(
		&item.ID, &item.OshiID, &item.Title, &item.URL, &item.Snippet,
		&priority, &item.SourceNode, &item.CollectedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("URL による収集情報の検索に失敗しました: %w", err)
	}

	item.Priority = model.ParsePriority(priority)
	return item, nil
}

// ListByOshi は推しの収集情報をcollected_at降順で取得する。
func (r *PostgresItemRepo) ListByOshi(ctx context.Context, oshiID string, limit int) ([]*model.CollectedItem, error) {
	query := `SELECT id, oshi_id, title, url, snippet, priority, source_node, collected_at, updated_at
	          FROM collected_items WHERE oshi_id = $1 ORDER BY collected_at DESC`
	args := []interface{}{oshiID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("収集情報一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.CollectedItem
	for rows.Next() {
		item := &model.CollectedItem{}
		var priority string
		if err := rows.Scan(
			&item.ID, &item.OshiID, &item.Title, &item.URL, &item.Snippet,
			&priority, &item.SourceNode, &item.CollectedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("収集情報行の読み取りに失敗しました: %w", err)
		}
		item.Priority = model.ParsePriority(priority)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("収集情報一覧の走査に失敗しました: %w", err)
	}

	return items, nil
}

// Create は新規収集情報を作成する。
// Priorityが未設定の場合はnormal、タイムスタンプは現在時刻で補完する。
func (r *PostgresItemRepo) Create(ctx context.Context, item *model.CollectedItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Priority == "" {
		item.Priority = model.PriorityNormal
	}
	now := time.Now()
	if item.CollectedAt.IsZero() {
		item.CollectedAt = now
	}
	item.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collected_items (id, oshi_id, title, url, snippet, priority, source_node, collected_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.OshiID, item.Title, item.URL, item.Snippet,
		string(item.Priority), item.SourceNode, item.CollectedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("収集情報の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdatePriority は収集情報の重要度を更新する。
// 対象が存在しない場合はfalseを返す。
func (r *PostgresItemRepo) UpdatePriority(ctx context.Context, itemID string, priority model.Priority) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE collected_items SET priority = $2, updated_at = now() WHERE id = $1`,
		itemID, string(priority),
	)
	if err != nil {
		return false, fmt.Errorf("重要度の更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("重要度更新の結果確認に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ ItemRepository = (*PostgresItemRepo)(nil)
