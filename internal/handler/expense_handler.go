package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// ExpenseHandler は推し活支出のHTTPハンドラー。
type ExpenseHandler struct {
	expenseRepo repository.ExpenseRepository
}

// NewExpenseHandler はExpenseHandlerを生成する。
func NewExpenseHandler(expenseRepo repository.ExpenseRepository) *ExpenseHandler {
	return &ExpenseHandler{expenseRepo: expenseRepo}
}

// createExpenseRequest は支出登録リクエストのボディ。
type createExpenseRequest struct {
	OshiID   string `json:"oshi_id"`
	Category string `json:"category"`
	Amount   int    `json:"amount"`
	Memo     string `json:"memo"`
	SpentAt  string `json:"spent_at"` // YYYY-MM-DD
}

// expenseResponse は支出のAPIレスポンス。
type expenseResponse struct {
	ID       string `json:"id"`
	OshiID   string `json:"oshi_id"`
	Category string `json:"category"`
	Amount   int    `json:"amount"`
	Memo     string `json:"memo"`
	SpentAt  string `json:"spent_at"`
}

// toExpenseResponse はmodel.ExpenseからAPIレスポンスに変換する。
func toExpenseResponse(expense *model.Expense) expenseResponse {
	return expenseResponse{
		ID:       expense.ID,
		OshiID:   expense.OshiID,
		Category: expense.Category,
		Amount:   expense.Amount,
		Memo:     expense.Memo,
		SpentAt:  expense.SpentAt.UTC().Format("2006-01-02"),
	}
}

// CreateExpense は支出を登録する。
// POST /api/expenses
func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディの解析に失敗しました"))
		return
	}
	if req.Category == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("categoryが空です"))
		return
	}
	if req.Amount <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("amountは正の整数で指定してください"))
		return
	}

	spentAt, err := time.ParseInLocation("2006-01-02", req.SpentAt, time.UTC)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("spent_atはYYYY-MM-DD形式で指定してください"))
		return
	}

	expense := &model.Expense{
		UserID:   userID,
		OshiID:   req.OshiID,
		Category: req.Category,
		Amount:   req.Amount,
		Memo:     req.Memo,
		SpentAt:  spentAt,
	}
	if err := h.expenseRepo.Create(r.Context(), expense); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toExpenseResponse(expense))
}

// ListExpenses は指定年月の支出一覧を取得する。
// GET /api/expenses?year=YYYY&month=M
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("yearは2000〜2100で指定してください"))
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("monthは1〜12で指定してください"))
		return
	}

	expenses, err := h.expenseRepo.ListByUserAndMonth(r.Context(), userID, year, month)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]expenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		responses = append(responses, toExpenseResponse(expense))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]expenseResponse{"expenses": responses})
}
