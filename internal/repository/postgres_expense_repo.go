package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/oshiscout/internal/model"
)

// PostgresExpenseRepo はPostgreSQLを使用した支出リポジトリ。
type PostgresExpenseRepo struct {
	db *sql.DB
}

// NewPostgresExpenseRepo はPostgresExpenseRepoを生成する。
func NewPostgresExpenseRepo(db *sql.DB) *PostgresExpenseRepo {
	return &PostgresExpenseRepo{db: db}
}

// Create は新規支出を作成する。
func (r *PostgresExpenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, oshi_id, category, amount, memo, spent_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		expense.ID, expense.UserID, expense.OshiID, expense.Category,
		expense.Amount, expense.Memo, expense.SpentAt, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("支出の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserAndMonth は指定年月の支出をspent_at昇順で取得する。
// 月の境界はUTCで判定する。
func (r *PostgresExpenseRepo) ListByUserAndMonth(ctx context.Context, userID string, year, month int) ([]*model.Expense, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, oshi_id, category, amount, memo, spent_at, created_at
		 FROM expenses
		 WHERE user_id = $1 AND spent_at >= $2 AND spent_at < $3
		 ORDER BY spent_at ASC`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("支出一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		expense := &model.Expense{}
		if err := rows.Scan(
			&expense.ID, &expense.UserID, &expense.OshiID, &expense.Category,
			&expense.Amount, &expense.Memo, &expense.SpentAt, &expense.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("支出行の読み取りに失敗しました: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("支出一覧の走査に失敗しました: %w", err)
	}

	return expenses, nil
}

// compile-time interface check
var _ ExpenseRepository = (*PostgresExpenseRepo)(nil)
