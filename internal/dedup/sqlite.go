// SQLite-backed dedup index for inputs whose distinct-identifier sets do not
// fit in memory. SQLite has no bulk membership API, but "INSERT OR IGNORE"
// plus RowsAffected gives an exact first-seen answer in one round trip.
package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Index is a disk-backed identifier store shared by several entity kinds.
// Obtain a per-kind Tracker via Kind; close the Index once after the run.
type Index struct {
	db     *sql.DB
	insert *sql.Stmt
}

// OpenIndex opens (or creates) the index database at path.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dedup index: open %s: %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: ping %s: %w", path, err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS seen (
		kind TEXT NOT NULL,
		id   TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	) WITHOUT ROWID;`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: create table: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, `INSERT OR IGNORE INTO seen (kind, id) VALUES (?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: prepare insert: %w", err)
	}
	return &Index{db: db, insert: stmt}, nil
}

// Kind returns the Tracker for one entity kind (e.g. "bank"). Trackers share
// the Index's connection; closing a Tracker is a no-op.
func (ix *Index) Kind(name string) Tracker {
	return kindTracker{ix: ix, kind: name}
}

// Close releases the prepared statement and the database handle.
func (ix *Index) Close() error {
	serr := ix.insert.Close()
	derr := ix.db.Close()
	if serr != nil {
		return serr
	}
	return derr
}

type kindTracker struct {
	ix   *Index
	kind string
}

func (k kindTracker) FirstSeen(id string) (bool, error) {
	res, err := k.ix.insert.Exec(k.kind, id)
	if err != nil {
		return false, fmt.Errorf("dedup index: insert %s/%s: %w", k.kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("dedup index: rows affected: %w", err)
	}
	return n > 0, nil
}

func (k kindTracker) Close() error { return nil }
