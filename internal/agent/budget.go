package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hitoshi/oshiscout/internal/repository"
)

// BudgetAdviser は予算管理アドバイス生成のインターフェース。
type BudgetAdviser interface {
	GenerateBudgetAdvice(ctx context.Context, expensesJSON string, budget int) (string, error)
}

// BudgetAgent は推し活支出の月次レポートを生成するエージェント。
type BudgetAgent struct {
	expenseRepo repository.ExpenseRepository
	adviser     BudgetAdviser
	logger      *slog.Logger
}

// NewBudgetAgent はBudgetAgentの新しいインスタンスを生成する。
func NewBudgetAgent(
	expenseRepo repository.ExpenseRepository,
	adviser BudgetAdviser,
	logger *slog.Logger,
) *BudgetAgent {
	return &BudgetAgent{
		expenseRepo: expenseRepo,
		adviser:     adviser,
		logger:      logger,
	}
}

// BudgetReport は月次予算レポート。
type BudgetReport struct {
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	Total         int            `json:"total"`
	ByCategory    map[string]int `json:"by_category"`
	ExpensesCount int            `json:"expenses_count"`
	Advice        string         `json:"advice"`
}

// maxExpensesForAdvice はアドバイス生成に渡す支出の最大件数。
const maxExpensesForAdvice = 20

// GenerateReport は指定年月の月次予算レポートを生成する。
// 支出がない月は集計ゼロと定型アドバイスを返す。
func (a *BudgetAgent) GenerateReport(ctx context.Context, userID string, year, month int) (*BudgetReport, error) {
	a.logger.Info("予算レポート生成を開始します",
		slog.String("user_id", userID),
		slog.Int("year", year),
		slog.Int("month", month),
	)

	expenses, err := a.expenseRepo.ListByUserAndMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	if len(expenses) == 0 {
		a.logger.Info("支出データがありません",
			slog.String("user_id", userID),
			slog.Int("year", year),
			slog.Int("month", month),
		)
		return &BudgetReport{
			Year:       year,
			Month:      month,
			ByCategory: map[string]int{},
			Advice:     "この月の支出データがありません。",
		}, nil
	}

	byCategory := map[string]int{}
	total := 0
	for _, expense := range expenses {
		byCategory[expense.Category] += expense.Amount
		total += expense.Amount
	}

	// アドバイス生成用に支出の要約を渡す
	type expenseSummary struct {
		Category string `json:"category"`
		Amount   int    `json:"amount"`
		Memo     string `json:"memo"`
		Date     string `json:"date"`
	}
	summaries := []expenseSummary{}
	for i, expense := range expenses {
		if i >= maxExpensesForAdvice {
			break
		}
		summaries = append(summaries, expenseSummary{
			Category: expense.Category,
			Amount:   expense.Amount,
			Memo:     expense.Memo,
			Date:     expense.SpentAt.Format("2006-01-02"),
		})
	}
	summariesJSON, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("支出要約のエンコードに失敗しました: %w", err)
	}

	advice, err := a.adviser.GenerateBudgetAdvice(ctx, string(summariesJSON), 0)
	if err != nil {
		return nil, err
	}

	a.logger.Info("予算レポート生成が完了しました",
		slog.String("user_id", userID),
		slog.Int("total", total),
		slog.Int("expenses_count", len(expenses)),
	)
	return &BudgetReport{
		Year:          year,
		Month:         month,
		Total:         total,
		ByCategory:    byCategory,
		ExpensesCount: len(expenses),
		Advice:        advice,
	}, nil
}
