package database

import (
	"io/fs"
	"strings"
	"testing"
)

// TestMigrationsFS_UpDownPairs は埋め込まれたマイグレーションファイルが
// up/downのペアで揃っていることをテストする。
func TestMigrationsFS_UpDownPairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("migrations ディレクトリの読み取りに失敗: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("マイグレーションファイルが1件も埋め込まれていない")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("想定外のファイル名: %s", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("%s に対応する down マイグレーションがない", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("%s に対応する up マイグレーションがない", base)
		}
	}
}

// TestMigrationsFS_InitTables は初期マイグレーションに主要テーブルの
// 定義が含まれることをテストする。
func TestMigrationsFS_InitTables(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("初期マイグレーションの読み取りに失敗: %v", err)
	}

	sql := string(data)
	for _, table := range []string{"oshis", "collected_items", "network_nodes", "expenses"} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Errorf("テーブル %s の定義が見つからない", table)
		}
	}
}

// TestMigrationsFS_ChildTablesCascadeOnOshiDelete は推し削除時に子テーブルの
// 行が連鎖削除されることをテストする。外部キーにON DELETE CASCADEがないと
// 一度でも収集した推しの削除がFK違反で失敗する。
func TestMigrationsFS_ChildTablesCascadeOnOshiDelete(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("初期マイグレーションの読み取りに失敗: %v", err)
	}

	sql := string(data)
	refs := strings.Count(sql, "REFERENCES oshis (id)")
	cascades := strings.Count(sql, "REFERENCES oshis (id) ON DELETE CASCADE")
	if refs == 0 {
		t.Fatal("oshisへの外部キーが見つからない")
	}
	if cascades != refs {
		t.Errorf("oshisへの外部キー %d 件中 %d 件しかON DELETE CASCADEでない", refs, cascades)
	}
}
