package index

import (
	"fmt"
	"time"
)

// SessionRow represents a row in the sessions table, keyed by the bare
// session filename so the index stays valid if the root moves.
type SessionRow struct {
	Path      string
	ShortID   string
	Date      string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	ShortID string
	Title   string
	Snippet string
}

// Upsert inserts or replaces a session row and its FTS entry within a
// transaction.
func (db *DB) Upsert(row SessionRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO sessions (path, short_id, date, title, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			short_id   = excluded.short_id,
			date       = excluded.date,
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.ShortID, row.Date, row.Title, row.Checksum, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert session: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.ShortID, row.Title, body); err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a session row and its FTS entry.
func (db *DB) Delete(filename string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, filename)
	_, _ = tx.Exec(`DELETE FROM sessions WHERE path = ?`, filename)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a session, or empty
// string if not found.
func (db *DB) GetChecksum(filename string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM sessions WHERE path = ?`, filename).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed session, keyed by
// filename.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
