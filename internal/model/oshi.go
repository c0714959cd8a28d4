// Package model はドメインモデルを定義する。
package model

import "time"

// Oshi は推し（ファンが追跡する対象）を表す。
// IDは生成後に変更されない。属性の変更は明示的なUpdateのみで行う。
type Oshi struct {
	ID          string
	UserID      string
	Name        string
	Category    string // 例: アイドル、声優、VTuber。自由文字列
	OfficialURL string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
