package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/hitoshi/oshiscout/internal/model"
)

// リクエストヘッダー名
const (
	HeaderInternalAPIKey = "X-Internal-Api-Key"
	HeaderUserID         = "X-User-Id"
)

type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するキー。
const userIDContextKey contextKey = "user_id"

// ErrUserIDNotFound はコンテキストにユーザーIDが存在しない場合のエラー。
var ErrUserIDNotFound = errors.New("ユーザーIDがコンテキストに存在しません")

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", ErrUserIDNotFound
	}
	return userID, nil
}

// ContextWithUserID はユーザーIDを格納したコンテキストを返す。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// NewInternalAuthMiddleware は内部APIキー認証ミドルウェアを返す。
// X-Internal-Api-Keyヘッダーを定数時間比較で検証し、
// X-User-Idヘッダーの値をリクエストコンテキストに格納する。
// 本サービスはフロントエンドのBFFからのみ呼び出される想定。
func NewInternalAuthMiddleware(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(HeaderInternalAPIKey)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "UNAUTHORIZED",
					Message:  "内部APIキーが不正です。",
					Category: "auth",
					Action:   "X-Internal-Api-Keyヘッダーを確認してください。",
				})
				return
			}

			userID := r.Header.Get(HeaderUserID)
			if userID == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "UNAUTHORIZED",
					Message:  "ユーザーIDが指定されていません。",
					Category: "auth",
					Action:   "X-User-Idヘッダーを指定してください。",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}
