package index

// SessionIndex defines the interface for session indexing operations.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type SessionIndex interface {
	Upsert(row SessionRow, body string) error
	Delete(filename string) error
	GetChecksum(filename string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies SessionIndex at compile time.
var _ SessionIndex = (*DB)(nil)
