package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE favorites (track_id TEXT PRIMARY KEY)`)
	if err != nil {
		db.Close()
		t.Fatalf("failed to create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM favorites`).Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	return n
}

func insert(ids ...string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec(`INSERT INTO favorites (track_id) VALUES (?)`, id); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestWithTx_Commit(t *testing.T) {
	db := setupTestDB(t)

	if err := WithTx(context.Background(), db, insert("r1", "r2", "j1")); err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	if n := count(t, db); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	abort := errors.New("abort")

	err := WithTx(context.Background(), db, func(tx *sql.Tx) error {
		if err := insert("r1", "r2")(tx); err != nil {
			return err
		}
		return abort
	})

	if !errors.Is(err, abort) {
		t.Fatalf("err = %v, want %v", err, abort)
	}
	if n := count(t, db); n != 0 {
		t.Errorf("count = %d, want 0 (all rolled back)", n)
	}
}

func TestWithTx_RollbackOnStatementError(t *testing.T) {
	db := setupTestDB(t)

	// duplicate primary key fails the second insert
	if err := WithTx(context.Background(), db, insert("r1", "r1")); err == nil {
		t.Fatal("WithTx should return the constraint error")
	}
	if n := count(t, db); n != 0 {
		t.Errorf("count = %d, want 0 (rolled back)", n)
	}
}

func TestWithTx_ClosedDB(t *testing.T) {
	db := setupTestDB(t)
	db.Close()

	if err := WithTx(context.Background(), db, insert("r1")); err == nil {
		t.Error("WithTx on a closed db should fail to begin")
	}
}

func TestWithTx_CanceledContext(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithTx(ctx, db, insert("r1"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := count(t, db); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
