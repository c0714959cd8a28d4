package model

import "time"

// Priority は収集情報の重要度を表す。
type Priority string

const (
	// PriorityUrgent は見逃すと取り返しがつかない情報（チケット販売、締切など）。
	PriorityUrgent Priority = "urgent"
	// PriorityImportant は知っておくべき重要情報（新イベント、リリース告知など）。
	PriorityImportant Priority = "important"
	// PriorityNormal は日常的な情報。作成時のデフォルト値。
	PriorityNormal Priority = "normal"
)

// ParsePriority は文字列をPriorityに変換する。
// 未知の値はエラーにせずPriorityNormalへフォールバックする
// （過剰なurgent通知よりも控えめな判定を優先する方針）。
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityUrgent:
		return PriorityUrgent
	case PriorityImportant:
		return PriorityImportant
	default:
		return PriorityNormal
	}
}

// Severity は重要度の強さを返す。urgent > important > normal。
func (p Priority) Severity() int {
	switch p {
	case PriorityUrgent:
		return 2
	case PriorityImportant:
		return 1
	default:
		return 0
	}
}

// CollectedItem は収集された1件の情報を表す。
// URLは同一推し内で一意（重複チェックは書き込み時のルックアップで行う）。
// 作成はScoutAgentのみ、Priorityの更新はPriorityAgentのみが行う。
type CollectedItem struct {
	ID          string
	OshiID      string
	Title       string
	URL         string
	Snippet     string
	Priority    Priority
	SourceNode  string // ネットワークノード経由で収集された場合のノード名。直接収集は空
	CollectedAt time.Time
	UpdatedAt   time.Time
}
