// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/oshiscout/internal/middleware"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// OshiHandler は推し管理のHTTPハンドラー。
type OshiHandler struct {
	oshiRepo repository.OshiRepository
	itemRepo repository.ItemRepository
}

// NewOshiHandler はOshiHandlerを生成する。
func NewOshiHandler(oshiRepo repository.OshiRepository, itemRepo repository.ItemRepository) *OshiHandler {
	return &OshiHandler{
		oshiRepo: oshiRepo,
		itemRepo: itemRepo,
	}
}

// oshiRequest は推し作成・更新リクエストのボディ。
type oshiRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	OfficialURL string `json:"official_url"`
	Notes       string `json:"notes"`
}

// oshiResponse は推し情報のAPIレスポンス。
type oshiResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	OfficialURL string `json:"official_url"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// itemResponse は収集情報のAPIレスポンス。
type itemResponse struct {
	ID          string `json:"id"`
	OshiID      string `json:"oshi_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Priority    string `json:"priority"`
	SourceNode  string `json:"source_node"`
	CollectedAt string `json:"collected_at"`
}

// CreateOshi は推しを登録する。
// POST /api/oshis
func (h *OshiHandler) CreateOshi(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req oshiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディの解析に失敗しました"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("推しの名前が空です"))
		return
	}

	oshi := &model.Oshi{
		UserID:      userID,
		Name:        req.Name,
		Category:    req.Category,
		OfficialURL: req.OfficialURL,
		Notes:       req.Notes,
	}
	if err := h.oshiRepo.Create(r.Context(), oshi); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toOshiResponse(oshi))
}

// ListOshis はユーザーの推し一覧を取得する。
// GET /api/oshis
func (h *OshiHandler) ListOshis(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	oshis, err := h.oshiRepo.ListByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]oshiResponse, 0, len(oshis))
	for _, oshi := range oshis {
		responses = append(responses, toOshiResponse(oshi))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]oshiResponse{"oshis": responses})
}

// GetOshi は推し詳細を取得する。
// GET /api/oshis/:id
func (h *OshiHandler) GetOshi(w http.ResponseWriter, r *http.Request) {
	oshi, ok := resolveOwnedOshi(w, r, h.oshiRepo, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOshiResponse(oshi))
}

// UpdateOshi は推しの属性を更新する。
// PUT /api/oshis/:id
func (h *OshiHandler) UpdateOshi(w http.ResponseWriter, r *http.Request) {
	oshi, ok := resolveOwnedOshi(w, r, h.oshiRepo, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req oshiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("ボディの解析に失敗しました"))
		return
	}
	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("推しの名前が空です"))
		return
	}

	oshi.Name = req.Name
	oshi.Category = req.Category
	oshi.OfficialURL = req.OfficialURL
	oshi.Notes = req.Notes
	if err := h.oshiRepo.Update(r.Context(), oshi); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toOshiResponse(oshi))
}

// DeleteOshi は推しを削除する。
// DELETE /api/oshis/:id
func (h *OshiHandler) DeleteOshi(w http.ResponseWriter, r *http.Request) {
	oshi, ok := resolveOwnedOshi(w, r, h.oshiRepo, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.oshiRepo.Delete(r.Context(), oshi.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// defaultItemListLimit は収集情報一覧のデフォルト取得件数。
const defaultItemListLimit = 50

// ListItems は推しの収集情報一覧をタイムライン順（新しい順）で取得する。
// GET /api/oshis/:id/items?limit=N
func (h *OshiHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	oshi, ok := resolveOwnedOshi(w, r, h.oshiRepo, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	limit := defaultItemListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("limitは正の整数で指定してください"))
			return
		}
		limit = n
	}

	items, err := h.itemRepo.ListByOshi(r.Context(), oshi.ID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]itemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, itemResponse{
			ID:          item.ID,
			OshiID:      item.OshiID,
			Title:       item.Title,
			URL:         item.URL,
			Snippet:     item.Snippet,
			Priority:    string(item.Priority),
			SourceNode:  item.SourceNode,
			CollectedAt: item.CollectedAt.UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]itemResponse{"items": responses})
}

// --- ヘルパー関数 ---

// oshiFinder は所有権検証に必要な最小インターフェース。
type oshiFinder interface {
	FindByID(ctx context.Context, id string) (*model.Oshi, error)
}

// toOshiResponse はmodel.OshiからAPIレスポンスに変換する。
func toOshiResponse(oshi *model.Oshi) oshiResponse {
	return oshiResponse{
		ID:          oshi.ID,
		Name:        oshi.Name,
		Category:    oshi.Category,
		OfficialURL: oshi.OfficialURL,
		Notes:       oshi.Notes,
		CreatedAt:   oshi.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   oshi.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// requireUserID はコンテキストからユーザーIDを取り出す。
// 存在しない場合は401を書き込んでfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "X-User-Idヘッダーを指定してください。",
		})
		return "", false
	}
	return userID, true
}

// resolveOwnedOshi は推しを取得し、リクエストユーザーが所有者であることを
// 検証する。存在しなければ404、所有者でなければ403を書き込んでfalseを返す。
func resolveOwnedOshi(w http.ResponseWriter, r *http.Request, finder oshiFinder, oshiID string) (*model.Oshi, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return nil, false
	}

	oshi, err := finder.FindByID(r.Context(), oshiID)
	if err != nil {
		handleServiceError(w, err)
		return nil, false
	}
	if oshi == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewOshiNotFoundError(oshiID))
		return nil, false
	}
	if oshi.UserID != userID {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return nil, false
	}
	return oshi, true
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はエージェント・リポジトリ層から返されたエラーを
// 適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeOshiNotFound, model.ErrCodeItemNotFound, model.ErrCodeNodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
