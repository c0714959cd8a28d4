package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hitoshi/oshiscout/internal/model"
)

// stripJSONFence はLLM応答からMarkdownのコードフェンスを取り除く。
// フェンスがない場合は前後の空白だけを削った文字列を返す。
func stripJSONFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// parsePriorityResponse は重要度判定応答をパースする。
// 未知のpriority値はnormalに倒す。
func parsePriorityResponse(text string) (model.Priority, string, error) {
	var parsed struct {
		Priority string `json:"priority"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(stripJSONFence(text)), &parsed); err != nil {
		return model.PriorityNormal, "", fmt.Errorf("重要度判定応答のパースに失敗しました: %w", err)
	}
	return model.ParsePriority(parsed.Priority), parsed.Reason, nil
}

// parseCandidates はネットワーク発見応答をパースする。
// トップレベルの "nodes" 配列と素の配列の両方を受け付ける。
func parseCandidates(text string) ([]Candidate, error) {
	cleaned := stripJSONFence(text)

	var wrapped struct {
		Nodes []Candidate `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && wrapped.Nodes != nil {
		return wrapped.Nodes, nil
	}

	var bare []Candidate
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("ネットワーク発見応答のパースに失敗しました")
}
