package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/oshiscout/internal/model"
)

// PostgresOshiRepo はPostgreSQLを使用した推しリポジトリ。
type PostgresOshiRepo struct {
	db *sql.DB
}

// NewPostgresOshiRepo はPostgresOshiRepoを生成する。
func NewPostgresOshiRepo(db *sql.DB) *PostgresOshiRepo {
	return &PostgresOshiRepo{db: db}
}

// FindByID は指定IDの推しを取得する。見つからない場合はnilを返す。
func (r *PostgresOshiRepo) FindByID(ctx context.Context, id string) (*model.Oshi, error) {
	oshi := &model.Oshi{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, category, official_url, notes, created_at, updated_at
		 FROM oshis WHERE id = $1`,
		id,
	).Scan(
		&oshi.ID, &oshi.UserID, &oshi.Name, &oshi.Category,
		&oshi.OfficialURL, &oshi.Notes, &oshi.CreatedAt, &oshi.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("推しの取得に失敗しました: %w", err)
	}

	return oshi, nil
}

// ListAll は全推しを取得する。
func (r *PostgresOshiRepo) ListAll(ctx context.Context) ([]*model.Oshi, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, category, official_url, notes, created_at, updated_at
		 FROM oshis ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("推し一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanOshis(rows)
}

// ListByUserID はユーザーの全推しを取得する。
func (r *PostgresOshiRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Oshi, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, category, official_url, notes, created_at, updated_at
		 FROM oshis WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("推し一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanOshis(rows)
}

func scanOshis(rows *sql.Rows) ([]*model.Oshi, error) {
	var oshis []*model.Oshi
	for rows.Next() {
		oshi := &model.Oshi{}
		if err := rows.Scan(
			&oshi.ID, &oshi.UserID, &oshi.Name, &oshi.Category,
			&oshi.OfficialURL, &oshi.Notes, &oshi.CreatedAt, &oshi.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("推し行の読み取りに失敗しました: %w", err)
		}
		oshis = append(oshis, oshi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("推し一覧の走査に失敗しました: %w", err)
	}
	return oshis, nil
}

// Create は新規推しを作成する。
func (r *PostgresOshiRepo) Create(ctx context.Context, oshi *model.Oshi) error {
	if oshi.ID == "" {
		oshi.ID = uuid.NewString()
	}
	now := time.Now()
	oshi.CreatedAt = now
	oshi.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oshis (id, user_id, name, category, official_url, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		oshi.ID, oshi.UserID, oshi.Name, oshi.Category,
		oshi.OfficialURL, oshi.Notes, oshi.CreatedAt, oshi.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("推しの作成に失敗しました: %w", err)
	}
	return nil
}

// Update は既存推しの属性を更新する。
func (r *PostgresOshiRepo) Update(ctx context.Context, oshi *model.Oshi) error {
	oshi.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`UPDATE oshis SET
		    name = $2, category = $3, official_url = $4, notes = $5, updated_at = $6
		 WHERE id = $1`,
		oshi.ID, oshi.Name, oshi.Category, oshi.OfficialURL, oshi.Notes, oshi.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("推しの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの推しを削除する。
func (r *PostgresOshiRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oshis WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("推しの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ OshiRepository = (*PostgresOshiRepo)(nil)
