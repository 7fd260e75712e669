package index

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/store"
)

// Sync walks the sessions directory and brings the index up to date:
//   - new/changed session files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, st *store.Store, logger *slog.Logger) error {
	sessions := st.All()

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(sessions))
	for _, sess := range sessions {
		disk[sess.Filename] = struct{}{}

		content, found := st.Read(sess.SessionPath)
		if !found {
			continue
		}
		if checksums[sess.Filename] == checksumOf(content) {
			continue
		}
		if err := indexSession(db, sess, content); err != nil {
			logger.Warn("sync: index failed", slog.String("path", sess.Filename), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", sess.Filename))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.Delete(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexSession extracts metadata from content and upserts it.
func indexSession(db *DB, sess models.Session, content string) error {
	md := parser.Extract(content)
	return db.Upsert(SessionRow{
		Path:      sess.Filename,
		ShortID:   sess.ShortID,
		Date:      sess.Date,
		Title:     md.Title,
		Checksum:  checksumOf(content),
		UpdatedAt: sess.ModifiedTime,
	}, content)
}

// checksumOf returns the hex SHA-256 digest used for change detection.
func checksumOf(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
