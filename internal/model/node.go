package model

import "time"

// NodeKind はネットワークノードの種類を表す。
type NodeKind string

const (
	// NodeKindMember はグループメンバー。
	NodeKindMember NodeKind = "member"
	// NodeKindStaff はスタッフ・マネージャー。
	NodeKindStaff NodeKind = "staff"
	// NodeKindOrganization は事務所・レーベルなどの組織。
	NodeKindOrganization NodeKind = "org"
	// NodeKindFanAccount はファンによる情報アカウント。
	NodeKindFanAccount NodeKind = "fan"
	// NodeKindVenue は会場。
	NodeKindVenue NodeKind = "venue"
	// NodeKindCollaborator はコラボ相手。
	NodeKindCollaborator NodeKind = "collab"
	// NodeKindMedia はメディア・番組。
	NodeKindMedia NodeKind = "media"
)

// ParseNodeKind は文字列をNodeKindに変換する。
// LLMの出力は揺れるため、未知の値はエラーにせずNodeKindFanAccountへ
// フォールバックする。
func ParseNodeKind(s string) NodeKind {
	switch NodeKind(s) {
	case NodeKindMember, NodeKindStaff, NodeKindOrganization,
		NodeKindFanAccount, NodeKindVenue, NodeKindCollaborator, NodeKindMedia:
		return NodeKind(s)
	default:
		return NodeKindFanAccount
	}
}

// NodeRing は推しからの距離を表すリング。
type NodeRing int

const (
	// RingInner は直接関係者（メンバー、事務所、スタッフ等）。
	RingInner NodeRing = 1
	// RingOuter は周辺（ファンアカウント、会場、メディア等）。
	RingOuter NodeRing = 2
)

// ParseNodeRing は整数をNodeRingに変換する。
// 1以外（0や範囲外を含む）はすべてRingOuterへフォールバックする。
func ParseNodeRing(n int) NodeRing {
	if n == int(RingInner) {
		return RingInner
	}
	return RingOuter
}

// maxRelationshipLen はrelationshipフィールドの最大文字数（rune単位）。
const maxRelationshipLen = 200

// TruncateRelationship は関係性テキストを最大200文字に切り詰める。
// 日本語を想定するためバイトではなくruneで数える。
func TruncateRelationship(s string) string {
	runes := []rune(s)
	if len(runes) <= maxRelationshipLen {
		return s
	}
	return string(runes[:maxRelationshipLen])
}

// NetworkNode は推しに関連する周辺エンティティ（人物・組織・アカウント）を表す。
// 名前は同一推し内で一意。物理削除はせず、Deactivateで監視対象から外す。
type NetworkNode struct {
	ID             string
	OshiID         string
	Name           string
	Kind           NodeKind
	Ring           NodeRing
	Relationship   string
	SearchQueries  []string
	IsActive       bool
	DiscoveredAt   time.Time
	LastSearchedAt *time.Time // 初回検索まではnil
}
