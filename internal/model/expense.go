package model

import "time"

// Expense は推し活の支出1件を表す。
type Expense struct {
	ID        string
	UserID    string
	OshiID    string
	Category  string // 例: チケット、グッズ、遠征、その他
	Amount    int    // 円
	Memo      string
	SpentAt   time.Time
	CreatedAt time.Time
}
