package feedsite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/oshiscout/internal/metrics"
	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

const (
	// maxFeedItems は1回の巡回で取り込むフィード記事の最大件数。
	maxFeedItems = 10
	// maxSnippetLen はスニペットの最大文字数（ルーン数）。
	maxSnippetLen = 200
	// sourceNodeOfficial は公式フィード由来の収集情報に付く収集元名。
	sourceNodeOfficial = "official-feed"
)

// Sweeper は公式サイトのフィードを巡回して収集情報を取り込む。
// HTMLが返された場合はフィードURLの自動発見を一度だけ試みる。
type Sweeper struct {
	itemRepo  repository.ItemRepository
	collector metrics.MetricsCollector
	logger    *slog.Logger
	sanitizer *bluemonday.Policy
	parser    *gofeed.Parser

	// client はテスト用に差し替え可能。既定はSSRF防止付きクライアント。
	client      *http.Client
	maxBodySize int64
}

// NewSweeper はSweeperの新しいインスタンスを生成する。
func NewSweeper(
	itemRepo repository.ItemRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
) *Sweeper {
	return &Sweeper{
		itemRepo:    itemRepo,
		collector:   collector,
		logger:      logger,
		sanitizer:   bluemonday.StrictPolicy(),
		parser:      gofeed.NewParser(),
		client:      NewSafeClient(timeout),
		maxBodySize: maxBodySize,
	}
}

// Sweep は推しの公式サイトのフィードを巡回し、新規収集情報のIDを返す。
// 公式URL未設定の推しは何もせず空を返す。
// URL重複は検索収集と同じ (oshi_id, url) ルックアップで排除する。
func (s *Sweeper) Sweep(ctx context.Context, oshi *model.Oshi) ([]string, error) {
	if oshi.OfficialURL == "" {
		return []string{}, nil
	}

	s.logger.Info("公式フィード巡回を開始します",
		slog.String("oshi_id", oshi.ID),
		slog.String("official_url", oshi.OfficialURL),
	)

	if err := ValidateURL(oshi.OfficialURL); err != nil {
		return nil, fmt.Errorf("公式URLの検証に失敗しました: %w", err)
	}

	body, err := s.fetch(ctx, oshi.OfficialURL)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseString(body)
	if err != nil {
		// HTMLが返された場合はフィードURLを自動発見して1回だけ再試行
		feedURL := FindFeedURL(body, oshi.OfficialURL)
		if feedURL == "" {
			return nil, fmt.Errorf("フィードが見つかりませんでした: %w", err)
		}
		if err := ValidateURL(feedURL); err != nil {
			return nil, fmt.Errorf("発見したフィードURLの検証に失敗しました: %w", err)
		}

		s.logger.Info("フィードURLを自動発見しました",
			slog.String("oshi_id", oshi.ID),
			slog.String("feed_url", feedURL),
		)

		body, err = s.fetch(ctx, feedURL)
		if err != nil {
			return nil, err
		}
		feed, err = s.parser.ParseString(body)
		if err != nil {
			return nil, fmt.Errorf("フィードのパースに失敗しました: %w", err)
		}
	}

	newIDs := []string{}
	for i, item := range feed.Items {
		if i >= maxFeedItems {
			break
		}
		if item.Link == "" {
			continue
		}

		existing, err := s.itemRepo.FindByOshiAndURL(ctx, oshi.ID, item.Link)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		collected := &model.CollectedItem{
			OshiID:     oshi.ID,
			Title:      item.Title,
			URL:        item.Link,
			Snippet:    s.buildSnippet(item),
			SourceNode: sourceNodeOfficial,
		}
		if err := s.itemRepo.Create(ctx, collected); err != nil {
			return nil, err
		}
		newIDs = append(newIDs, collected.ID)
	}

	s.collector.RecordItemsCreated("feed", len(newIDs))
	s.logger.Info("公式フィード巡回が完了しました",
		slog.String("oshi_id", oshi.ID),
		slog.Int("feed_items", len(feed.Items)),
		slog.Int("new_count", len(newIDs)),
	)
	return newIDs, nil
}

// fetch はURLをGETしてボディを文字列で返す。サイズ上限を超過した分は読み捨てる。
func (s *Sweeper) fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "OshiScout/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("公式サイトの取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("公式サイトがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return string(body), nil
}

// buildSnippet はフィード記事からプレーンテキストのスニペットを組み立てる。
// HTMLタグはすべて除去し、上限文字数で切り詰める。
func (s *Sweeper) buildSnippet(item *gofeed.Item) string {
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(raw))
	// サニタイズで残った連続空白を1つにまとめる
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > maxSnippetLen {
		return string(runes[:maxSnippetLen])
	}
	return text
}
