// Package agent は情報収集パイプラインの各エージェントを提供する。
// Scout（収集）・Network（発見・拡張）・Priority（重要度判定）と、
// それらを統括するRootエージェントを含む。
package agent

import "fmt"

// categoryKeywords はカテゴリ別の追加検索キーワード。
// 並び順はそのままクエリの生成順になる。
var categoryKeywords = map[string][]string{
	"アイドル":   {"ライブ チケット", "イベント 握手会"},
	"アーティスト": {"ライブ チケット", "新曲 アルバム"},
	"声優":     {"イベント チケット", "出演 アニメ"},
	"アニメ":    {"放送 配信", "グッズ 発売"},
	"俳優":     {"舞台 チケット", "ドラマ 映画 出演"},
	"お笑い":    {"ライブ チケット", "テレビ 出演"},
	"スポーツ":   {"試合 チケット", "大会 出場"},
	"VTuber": {"配信 コラボ", "グッズ 発売"},
}

// BuildQueries は推しの属性から検索クエリリストを生成する。
// 先頭は常に「<名前> 最新情報」。カテゴリが既知ならキーワード別クエリを追加し、
// 公式URLがあればsite:クエリを末尾に加える。未知のカテゴリは無視する。
func BuildQueries(oshiName, category, officialURL string) []string {
	queries := []string{fmt.Sprintf("%s 最新情報", oshiName)}

	if category != "" {
		for _, kw := range categoryKeywords[category] {
			queries = append(queries, fmt.Sprintf("%s %s", oshiName, kw))
		}
	}

	if officialURL != "" {
		queries = append(queries, fmt.Sprintf("site:%s", officialURL))
	}

	return queries
}
