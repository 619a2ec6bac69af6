package cache

import (
	"context"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"voltaudit/internal/infrastructure/persistence/sqlite/model"
)

func setupSQLiteCache(t *testing.T) *SQLiteCache {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&model.SnapshotKV{}); err != nil {
		t.Fatalf("auto migrate snapshot_kv: %v", err)
	}

	return NewSQLiteCache(db)
}

func TestSQLiteCacheSetGetDelete(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "circuit:audit-1:voltage-drop:c1", `{"id":"c1"}`, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := cache.Get(ctx, "circuit:audit-1:voltage-drop:c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatalf("Get() expected found=true")
	}
	if value != `{"id":"c1"}` {
		t.Fatalf("Get() value = %q", value)
	}

	if err := cache.Set(ctx, "circuit:audit-1:voltage-drop:c1", `{"id":"c1","name":"Panel A"}`, 0); err != nil {
		t.Fatalf("Set(update) error = %v", err)
	}

	value, found, err = cache.Get(ctx, "circuit:audit-1:voltage-drop:c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || value != `{"id":"c1","name":"Panel A"}` {
		t.Fatalf("Get() after update = %q, found=%v", value, found)
	}

	if err := cache.Delete(ctx, "circuit:audit-1:voltage-drop:c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, found, err = cache.Get(ctx, "circuit:audit-1:voltage-drop:c1")
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if found {
		t.Fatalf("Get() expected found=false after delete")
	}
}

func TestSQLiteCacheRejectsEmptyKey(t *testing.T) {
	cache := setupSQLiteCache(t)
	ctx := context.Background()

	if err := cache.Set(ctx, "", "v", 0); err == nil {
		t.Fatalf("Set() expected error for empty key")
	}
	if _, _, err := cache.Get(ctx, ""); err == nil {
		t.Fatalf("Get() expected error for empty key")
	}
	if err := cache.Delete(ctx, " "); err == nil {
		t.Fatalf("Delete() expected error for blank key")
	}
}

func TestSQLiteCacheMissingKey(t *testing.T) {
	cache := setupSQLiteCache(t)

	_, found, err := cache.Get(context.Background(), "circuit:audit-1:schedule-of-loads:unknown")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Fatalf("Get() expected found=false for unknown key")
	}
}
