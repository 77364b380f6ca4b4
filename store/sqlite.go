package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"bitbucket.org/Davydov/tefactor/sampler"
)

const schema = `
CREATE TABLE IF NOT EXISTS chains (
	run_id  TEXT NOT NULL,
	chain   INTEGER NOT NULL,
	seed    TEXT NOT NULL,
	burn_in INTEGER NOT NULL,
	total   INTEGER NOT NULL,
	PRIMARY KEY (run_id, chain)
);
CREATE TABLE IF NOT EXISTS draws (
	run_id TEXT NOT NULL,
	chain  INTEGER NOT NULL,
	iter   INTEGER NOT NULL,
	name   TEXT NOT NULL,
	value  REAL NOT NULL,
	PRIMARY KEY (run_id, chain, iter, name)
);
`

// OpenSQLite opens a SQLite database and creates the tables.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return db, nil
}

// ExportSQLite writes the archives to a long-format table draws(run_id,
// chain, iter, name, value) with one row per scalar parameter and
// iteration. Existing rows of the same chains are replaced.
func ExportSQLite(ctx context.Context, path string, archives []*sampler.Archive) error {
	db, err := OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, a := range archives {
		if a == nil {
			continue
		}
		if err := exportArchive(ctx, db, a); err != nil {
			return fmt.Errorf("chain %d: %w", a.Chain, err)
		}
		log.Infof("Exported chain %d (%d draws) to %s", a.Chain, a.Rows(), path)
	}
	return nil
}

// exportArchive writes one archive in a transaction.
func exportArchive(ctx context.Context, db *sql.DB, a *sampler.Archive) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO chains (run_id, chain, seed, burn_in, total) VALUES (?, ?, ?, ?, ?)`,
		a.RunID, a.Chain, strconv.FormatUint(a.Seed, 10), a.BurnIn, a.Total); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM draws WHERE run_id = ? AND chain = ?`, a.RunID, a.Chain); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO draws (run_id, chain, iter, name, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	names := a.Names()
	for _, d := range a.Draws() {
		for j, v := range d.Values() {
			if _, err = stmt.ExecContext(ctx, a.RunID, a.Chain, d.Iter, names[j], v); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
