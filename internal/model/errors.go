package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, agent, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeOshiNotFound   = "OSHI_NOT_FOUND"
	ErrCodeItemNotFound   = "ITEM_NOT_FOUND"
	ErrCodeNodeNotFound   = "NODE_NOT_FOUND"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeSearchFailed   = "SEARCH_FAILED"
	ErrCodeForbidden      = "FORBIDDEN"
)

// NewOshiNotFoundError は推し未検出エラーを生成する。
func NewOshiNotFoundError(oshiID string) *APIError {
	return &APIError{
		Code:     ErrCodeOshiNotFound,
		Message:  fmt.Sprintf("指定された推しが見つかりません: %s", oshiID),
		Category: "validation",
		Action:   "推しIDを確認してください。",
	}
}

// NewItemNotFoundError は収集情報未検出エラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された収集情報が見つかりません: %s", itemID),
		Category: "validation",
		Action:   "情報IDを確認してください。",
	}
}

// NewNodeNotFoundError はネットワークノード未検出エラーを生成する。
func NewNodeNotFoundError(nodeID string) *APIError {
	return &APIError{
		Code:     ErrCodeNodeNotFound,
		Message:  fmt.Sprintf("指定されたノードが見つかりません: %s", nodeID),
		Category: "validation",
		Action:   "ノードIDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト内容が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewSearchFailedError は検索コラボレーターの呼び出し失敗エラーを生成する。
// リトライを使い切った後に返される。
func NewSearchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSearchFailed,
		Message:  fmt.Sprintf("検索の実行に失敗しました: %s", reason),
		Category: "agent",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewForbiddenError はアクセス権限がない場合のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この推しへのアクセス権限がありません。",
		Category: "auth",
		Action:   "自分が登録した推しのIDを指定してください。",
	}
}
