package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/oshiscout/internal/model"
)

// PostgresOshiRepoはOshiRepositoryインターフェースを満たすことを検証
func TestPostgresOshiRepo_ImplementsInterface(t *testing.T) {
	var _ OshiRepository = (*PostgresOshiRepo)(nil)
}

// NewPostgresOshiRepoが正しく初期化されることを検証
func TestNewPostgresOshiRepo_Initializes(t *testing.T) {
	repo := NewPostgresOshiRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// Oshiモデルのフィールドが正しく構築されることを検証
func TestPostgresOshiRepo_OshiModel_Fields(t *testing.T) {
	now := time.Now()
	oshi := &model.Oshi{
		ID:          "oshi-id-1",
		UserID:      "user-id-1",
		Name:        "星野テスト",
		Category:    "アイドル",
		OfficialURL: "https://example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if oshi.ID != "oshi-id-1" {
		t.Errorf("oshi.ID = %q, want %q", oshi.ID, "oshi-id-1")
	}
	if oshi.Name != "星野テスト" {
		t.Errorf("oshi.Name = %q, want %q", oshi.Name, "星野テスト")
	}
	if oshi.Category != "アイドル" {
		t.Errorf("oshi.Category = %q, want %q", oshi.Category, "アイドル")
	}
}

// OshiのOfficialURLとNotesが省略可能であることを検証
func TestPostgresOshiRepo_OshiModel_OptionalFields(t *testing.T) {
	oshi := &model.Oshi{
		ID:     "oshi-id-2",
		UserID: "user-id-1",
		Name:   "名前のみ",
	}

	if oshi.OfficialURL != "" {
		t.Error("official_url should be empty by default")
	}
	if oshi.Notes != "" {
		t.Error("notes should be empty by default")
	}
}
