// Package gemini はGemini APIを使用した推論クライアントを提供する。
// 重要度判定・ネットワーク発見・サマリー生成を担う。
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hitoshi/oshiscout/internal/model"
)

const (
	// maxAttempts は一時的エラーに対する最大試行回数。
	maxAttempts = 3
	// initialRetryDelay は再試行の初回遅延。
	initialRetryDelay = 2 * time.Second
	// maxRetryDelay は再試行の最大遅延。
	maxRetryDelay = 10 * time.Second
)

// Candidate はネットワーク発見で提案されたエンティティ候補。
type Candidate struct {
	Name          string   `json:"name"`
	Kind          string   `json:"node_type"`
	Ring          int      `json:"ring"`
	Relationship  string   `json:"relationship"`
	SearchQueries []string `json:"search_queries"`
}

// ClassifyMetrics は重要度判定フォールバックのメトリクス記録先。
type ClassifyMetrics interface {
	RecordClassifyFallback()
}

// Client はGemini APIのクライアント。
// 生成呼び出しは一時的エラーに対して指数バックオフで再試行する。
type Client struct {
	client  *genai.Client
	model   string
	logger  *slog.Logger
	metrics ClassifyMetrics

	// generate はテスト用に差し替え可能な生成関数。
	generate func(ctx context.Context, prompt string) (string, error)
	sleep    func(time.Duration)
}

// NewClient はClient の新しいインスタンスを生成する。
func NewClient(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini APIキーが設定されていません")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの生成に失敗しました: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  modelName,
		logger: logger,
		sleep:  time.Sleep,
	}
	c.generate = c.generateContent
	return c, nil
}

// SetMetrics はフォールバック記録先を設定する。未設定でも動作する。
func (c *Client) SetMetrics(m ClassifyMetrics) {
	c.metrics = m
}

func (c *Client) recordFallback() {
	if c.metrics != nil {
		c.metrics.RecordClassifyFallback()
	}
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("テキスト生成に失敗しました: %w", err)
	}
	return resp.Text(), nil
}

// generateWithRetry は生成呼び出しを最大3回まで再試行する。
func (c *Client) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := initialRetryDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := c.generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			c.logger.Warn("生成に失敗したため再試行します",
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
	return "", fmt.Errorf("生成が%d回失敗しました: %w", maxAttempts, lastErr)
}

// ClassifyPriority は収集情報の重要度をファン視点で判定する。
// 呼び出し失敗・パース失敗時はnormalにフォールバックし、エラーは返さない
// （過剰なurgent通知よりも見逃しの方がまし、という方針ではなく、その逆:
// 誤urgentの洪水の方が信頼を損なうため控えめに倒す）。
func (c *Client) ClassifyPriority(ctx context.Context, title, url, snippet string) model.Priority {
	snippetSection := ""
	if snippet != "" {
		snippetSection = "\n概要: " + snippet
	}

	prompt := fmt.Sprintf(`あなたは推し活（ファン活動）の情報を分析する専門家です。
以下の情報の重要度を、ファンの視点で判定してください。

タイトル: %s
URL: %s%s

## 判定基準（見逃した場合のダメージで分類）

**urgent（見逃すと取り返しがつかない）**:
- チケットの先行販売・一般販売の開始や申込期限
- 抽選申込の受付開始・締切
- 限定グッズ・限定商品の発売開始
- ファンクラブの入会・更新期限
- 放送・配信の時間指定イベント（生放送など）
- 期間限定のキャンペーン・コラボ

**important（知っておくべき重要情報）**:
- 新イベント・ライブ・コンサートの告知
- 新曲・アルバム・DVD/Blu-rayの発売情報
- テレビ・ラジオ・雑誌への出演情報
- グループやメンバーに関する重要な発表
- ファンミーティングの開催告知

**normal（日常的な情報）**:
- ブログ・SNSの日常的な更新
- 過去のイベントのレポート・感想記事
- ニュースのまとめ記事
- ファンの口コミ・レビュー

以下のJSON形式のみで回答してください:
{"priority": "urgent|important|normal", "reason": "判定理由（20字以内）"}
`, title, url, snippetSection)

	text, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		c.logger.Warn("重要度判定に失敗したためnormalとして扱います",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		c.recordFallback()
		return model.PriorityNormal
	}

	priority, reason, err := parsePriorityResponse(text)
	if err != nil {
		c.logger.Warn("重要度判定結果のパースに失敗したためnormalとして扱います",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		c.recordFallback()
		return model.PriorityNormal
	}

	c.logger.Info("重要度を判定しました",
		slog.String("title", title),
		slog.String("priority", string(priority)),
		slog.String("reason", reason),
	)
	return priority
}

// DiscoverEntities は推しの関連人物・組織・情報源の候補を提案させる。
// パース失敗時は空リストを返す。生成呼び出し自体の失敗はエラーとして返す。
func (c *Client) DiscoverEntities(ctx context.Context, oshiName, category string) ([]Candidate, error) {
	categorySection := ""
	if category != "" {
		categorySection = "\nカテゴリ: " + category
	}

	prompt := fmt.Sprintf(`あなたは推し活（ファン活動）の情報収集を支援する専門家です。
以下の推しについて、情報収集の網を広げるために監視すべき関連エンティティ
（人物・組織・アカウント・会場・メディアなど）を提案してください。

推しの名前: %s%s

## 提案ルール:
- node_type は member / staff / organization / fan / venue / collab / media のいずれか
- ring は 1（直接の関係者）または 2（周辺的な関係）
- relationship は推しとの関係の簡潔な説明（200字以内）
- search_queries はそのエンティティ経由で推しの情報を見つけるための検索クエリ（0〜3件）
- 最大10件まで

以下のJSON形式のみで回答してください:
{"nodes": [{"name": "エンティティ名", "node_type": "member", "ring": 1, "relationship": "関係の説明", "search_queries": ["クエリ1"]}]}
`, oshiName, categorySection)

	text, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	candidates, err := parseCandidates(text)
	if err != nil {
		c.logger.Warn("ネットワーク発見結果のパースに失敗したため空として扱います",
			slog.String("oshi_name", oshiName),
			slog.String("error", err.Error()),
		)
		return []Candidate{}, nil
	}

	return candidates, nil
}

// SummaryItem はサマリー生成に渡す収集情報の要約。
type SummaryItem struct {
	Title string
	URL   string
}

// GenerateSummary は収集情報から推しの直近活動サマリーを生成する。
// 生成失敗時は定型文にフォールバックし、エラーは返さない。
func (c *Client) GenerateSummary(ctx context.Context, oshiName string, items []SummaryItem) string {
	if len(items) == 0 {
		return fmt.Sprintf("%sさんに関する最新情報はまだ収集されていません。しばらくお待ちください。", oshiName)
	}

	if len(items) > 10 {
		items = items[:10]
	}
	var lines []string
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s)", item.Title, item.URL))
	}

	prompt := fmt.Sprintf(`あなたは推し活（ファン活動）のアシスタントです。
以下の収集情報をもとに、「%s」の直近の活動サマリーを作成してください。

## 収集した情報:
%s

## 作成ルール:
- ファンが読んで嬉しくなるような、わかりやすいサマリーにしてください
- 特に重要な情報（チケット、イベント、新作発表）があれば強調してください
- 3〜5文で簡潔にまとめてください
- 「〜ですね！」「〜しましょう！」のような親しみやすいトーンで書いてください
`, oshiName, strings.Join(lines, "\n"))

	text, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		c.logger.Warn("サマリー生成に失敗したため定型文を返します",
			slog.String("oshi_name", oshiName),
			slog.String("error", err.Error()),
		)
		return fmt.Sprintf("%sさんの情報を収集しました。詳細はタイムラインをご確認ください。", oshiName)
	}

	return strings.TrimSpace(text)
}

// GenerateBudgetAdvice は支出データに基づく予算管理アドバイスを生成する。
func (c *Client) GenerateBudgetAdvice(ctx context.Context, expensesJSON string, budget int) (string, error) {
	budgetText := "予算未設定"
	if budget > 0 {
		budgetText = fmt.Sprintf("予算: %d円", budget)
	}

	prompt := fmt.Sprintf(`以下の推し活支出データに基づいて、予算管理のアドバイスを生成してください。

%s

支出データ:
%s

以下の観点でアドバイスをお願いします:
- カテゴリ別の支出傾向
- 予算に対する評価（予算設定時）
- 節約のTipsや今後の注意点

簡潔に3-5文でまとめてください。
`, budgetText, expensesJSON)

	text, err := c.generateWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Close はクライアントのライフサイクル終了フック。
// 現行SDKの*genai.Clientは解放すべきリソースを保持しないため何もしない。
func (c *Client) Close() error {
	return nil
}
