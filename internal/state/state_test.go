package state

import (
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/llehouerou/wavecast/internal/catalog"
)

// setupTestDB creates an in-memory SQLite database with the schema initialized.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := initSchema(db); err != nil {
		t.Fatalf("second initSchema failed: %v", err)
	}

	var version int
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestGetFavorites_Empty(t *testing.T) {
	db := setupTestDB(t)

	ids, err := getFavorites(db)
	if err != nil {
		t.Fatalf("getFavorites failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no favorites, got %v", ids)
	}
}

func TestSetFavorites_AddAndRemove(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := setFavorites(db, []string{"b"}, true, base); err != nil {
		t.Fatalf("setFavorites failed: %v", err)
	}
	if err := setFavorites(db, []string{"a", "c"}, true, base.Add(time.Second)); err != nil {
		t.Fatalf("setFavorites failed: %v", err)
	}

	ids, _ := getFavorites(db)
	if want := []string{"b", "a", "c"}; !slices.Equal(ids, want) {
		t.Errorf("favorites = %v, want %v", ids, want)
	}

	if err := setFavorites(db, []string{"a"}, false, base); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	ids, _ = getFavorites(db)
	if want := []string{"b", "c"}; !slices.Equal(ids, want) {
		t.Errorf("favorites = %v, want %v", ids, want)
	}
}

func TestSetFavorites_KeepsOriginalOrder(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = setFavorites(db, []string{"a"}, true, base)
	_ = setFavorites(db, []string{"b"}, true, base.Add(time.Second))
	// re-adding must not move "a" to the end
	_ = setFavorites(db, []string{"a"}, true, base.Add(time.Hour))

	ids, _ := getFavorites(db)
	if want := []string{"a", "b"}; !slices.Equal(ids, want) {
		t.Errorf("favorites = %v, want %v", ids, want)
	}
}

func TestSetFavorites_EmptyIDRejected(t *testing.T) {
	db := setupTestDB(t)

	err := setFavorites(db, []string{"a", ""}, true, time.Now())
	if !errors.Is(err, ErrEmptyTrackID) {
		t.Fatalf("err = %v, want ErrEmptyTrackID", err)
	}

	// nothing from the batch was written
	ids, _ := getFavorites(db)
	if len(ids) != 0 {
		t.Errorf("favorites = %v, want none", ids)
	}
}

func TestRemoveMissingFavorite(t *testing.T) {
	db := setupTestDB(t)

	if err := setFavorites(db, []string{"nope"}, false, time.Now()); err != nil {
		t.Errorf("removing a missing favorite failed: %v", err)
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	m, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := m.SetFavorite("r1", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	m, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer m.Close()

	ids, err := m.Favorites()
	if err != nil {
		t.Fatalf("Favorites failed: %v", err)
	}
	if !slices.Equal(ids, []string{"r1"}) {
		t.Errorf("favorites = %v, want [r1]", ids)
	}

	var mode string
	if err := m.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestGetDBPath(t *testing.T) {
	path, err := getDBPath("/tmp/wc")
	if err != nil {
		t.Fatalf("getDBPath failed: %v", err)
	}
	if want := filepath.Join("/tmp/wc", dbFileName); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestManager_BacksCatalogFavorites(t *testing.T) {
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()
	if err := m.SetFavorite("r2", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	cat := catalog.New(catalog.NewMockSource(
		catalog.Track{ID: "r1", Title: "One", Genre: "Rock"},
		catalog.Track{ID: "r2", Title: "Two", Genre: "Rock"},
	), m, nil)
	if err := cat.Load(t.Context()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cat.IsFavorite("r2") || cat.IsFavorite("r1") {
		t.Error("favorites not restored from the database")
	}

	if err := cat.SetFavorite("r1", true); err != nil {
		t.Fatalf("catalog SetFavorite failed: %v", err)
	}
	ids, _ := m.Favorites()
	if !slices.Contains(ids, "r1") {
		t.Errorf("favorites = %v, want r1 persisted", ids)
	}
}

func TestMock(t *testing.T) {
	m := NewMock("a")

	_ = m.SetFavorite("b", true)
	_ = m.SetFavorite("a", true)
	_ = m.SetFavorites([]string{"a"}, false)

	ids, _ := m.Favorites()
	if !slices.Equal(ids, []string{"b"}) {
		t.Errorf("favorites = %v, want [b]", ids)
	}

	m.SetError(errors.New("disk full"))
	if err := m.SetFavorite("c", true); err == nil {
		t.Error("expected the injected error")
	}

	_ = m.Close()
	if !m.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
}
