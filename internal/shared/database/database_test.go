package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	cases := []struct {
		driver string
		in     string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = ?"},
		{DriverPostgres, "SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{DriverPostgres, "UPDATE t SET a = ?, b = ? WHERE id = ?", "UPDATE t SET a = $1, b = $2 WHERE id = $3"},
		{DriverPostgres, "SELECT 'lit?eral', ? FROM t", "SELECT 'lit?eral', $1 FROM t"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tc := range cases {
		if got := rebind(tc.driver, tc.in); got != tc.want {
			t.Errorf("rebind(%s, %q) = %q, want %q", tc.driver, tc.in, got, tc.want)
		}
	}
}

func TestInClause(t *testing.T) {
	clause, args := InClause([]int64{3, 7, 11})
	if clause != "(?,?,?)" {
		t.Fatalf("clause = %q", clause)
	}
	if len(args) != 3 || args[0] != int64(3) || args[2] != int64(11) {
		t.Fatalf("args = %v", args)
	}

	clause, args = InClause(nil)
	if clause != "(NULL)" || args != nil {
		t.Fatalf("empty clause = %q, args %v", clause, args)
	}
}

func TestInsertBatchChunksLargeSets(t *testing.T) {
	db, err := OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE samples (id INTEGER PRIMARY KEY, label TEXT NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// 120 rows crosses two batch boundaries.
	rows := make([][]interface{}, 120)
	for i := range rows {
		rows[i] = []interface{}{fmt.Sprintf("label-%d", i)}
	}
	if err := InsertBatch(ctx, db, "samples", []string{"label"}, rows); err != nil {
		t.Fatalf("insert batch: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 120 {
		t.Fatalf("inserted %d rows, want 120", count)
	}
}

func TestInsertBatchRejectsRaggedRows(t *testing.T) {
	db, err := OpenSQLitePath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE samples (a TEXT, b TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	rows := [][]interface{}{{"one", "two"}, {"short"}}
	if err := InsertBatch(ctx, db, "samples", []string{"a", "b"}, rows); err == nil {
		t.Fatal("ragged row accepted")
	}
}

func TestIsLocked(t *testing.T) {
	if IsLocked(nil) {
		t.Error("nil error reported as contention")
	}
	if IsLocked(errors.New("syntax error")) {
		t.Error("unrelated error reported as contention")
	}
	if !IsLocked(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("busy message not recognized")
	}
}

func TestRunLockedGivesUpOnPersistentContention(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := RunLocked(ctx, slog.Default(), func() error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil {
		t.Fatal("persistent contention swallowed")
	}
	if calls != RetryAttempts {
		t.Fatalf("fn called %d times, want %d", calls, RetryAttempts)
	}
}

func TestRunLockedStopsOnOtherErrors(t *testing.T) {
	sentinel := errors.New("constraint violated")
	calls := 0
	err := RunLocked(context.Background(), slog.Default(), func() error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) || calls != 1 {
		t.Fatalf("err = %v after %d calls, want sentinel after 1", err, calls)
	}
}
