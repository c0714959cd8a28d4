// Package search はGoogle Custom Search APIを使用したWeb検索クライアントを提供する。
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// defaultEndpoint はGoogle Custom Search JSON APIのエンドポイント。
	defaultEndpoint = "https://www.googleapis.com/customsearch/v1"
	// maxResultsPerRequest はAPI仕様上の1リクエストあたり最大取得件数。
	maxResultsPerRequest = 10
	// maxAttempts は一時的エラーに対する最大試行回数。
	maxAttempts = 3
	// initialRetryDelay は再試行の初回遅延。
	initialRetryDelay = 2 * time.Second
	// maxRetryDelay は再試行の最大遅延。
	maxRetryDelay = 10 * time.Second
)

// Result は検索結果の1件。
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Client はGoogle Custom Search APIのクライアント。
// 一時的エラー（ネットワーク障害・429・5xx）は指数バックオフで再試行する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	cx         string
	endpoint   string // テスト用にエンドポイントを差し替え可能
	sleep      func(time.Duration)
}

// NewClient はClient の新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, cx string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		cx:         cx,
		endpoint:   defaultEndpoint,
		sleep:      time.Sleep,
	}
}

// apiResponse はCustom Search APIレスポンスのうち使用する部分。
type apiResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// transientError は再試行可能なエラーを表す。
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Search は指定クエリでWeb検索を実行し、最大num件の結果を返す。
// numが上限を超える場合は上限に丸める。ヒットなしは空スライスを返す。
// 一時的エラーは最大3回まで再試行し、それでも失敗した場合はエラーを返す。
func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if num <= 0 || num > maxResultsPerRequest {
		num = maxResultsPerRequest
	}

	var lastErr error
	delay := initialRetryDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		results, err := c.doSearch(ctx, query, num)
		if err == nil {
			return results, nil
		}

		var te *transientError
		if !errors.As(err, &te) {
			return nil, err
		}
		lastErr = err

		if attempt < maxAttempts {
			c.logger.Warn("検索に失敗したため再試行します",
				slog.String("query", query),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			c.sleep(delay)
			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}
	}

	c.logger.Error("検索の再試行上限に達しました",
		slog.String("query", query),
		slog.Int("attempts", maxAttempts),
		slog.String("error", lastErr.Error()),
	)
	return nil, fmt.Errorf("検索が%d回失敗しました: %w", maxAttempts, lastErr)
}

func (c *Client) doSearch(ctx context.Context, query string, num int) ([]Result, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("エンドポイントURLのパースに失敗しました: %w", err)
	}

	q := reqURL.Query()
	q.Set("key", c.apiKey)
	q.Set("cx", c.cx)
	q.Set("q", query)
	q.Set("num", fmt.Sprintf("%d", num))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 429と5xxは一時的エラー、それ以外の4xxは設定不備として即時失敗
		statusErr := fmt.Errorf("検索APIがステータス %d を返しました", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: statusErr}
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	results := make([]Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: item.Snippet,
		})
	}

	return results, nil
}
