package approval

import (
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Digest is the SHA-1 of a diff's exact raw text, headers included.
// Collisions are treated as equality.
type Digest [sha1.Size]byte

// Hash returns the digest of raw.
func Hash(raw string) Digest {
	return Digest(sha1.Sum([]byte(raw)))
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Record is one approval decision.
type Record struct {
	Digest     Digest
	ApprovedAt time.Time
}

// CacheUnavailableError is returned when the backing store cannot be used.
// Reads never return it: an unavailable store reports nothing approved.
type CacheUnavailableError struct {
	Path string
	Err  error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("approval cache %s unavailable: %v", e.Path, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error { return e.Err }

const schema = `CREATE TABLE IF NOT EXISTS approvals (
	digest      BLOB PRIMARY KEY,
	approved_at INTEGER NOT NULL
)`

// Store is a per-project approval cache. Records are only ever inserted;
// deleting the store file is the only way to evict them.
type Store struct {
	path   string
	db     *sql.DB
	err    error // non-nil when degraded
	logger zerolog.Logger
	now    func() time.Time

	warnOnce sync.Once
}

// Open opens the store for projectKey under dir. It never fails: if the
// store cannot be opened the returned Store is degraded and reports nothing
// approved.
func Open(dir, projectKey string, logger zerolog.Logger) *Store {
	s := &Store{
		path:   filepath.Join(dir, "approvals", fileName(projectKey)),
		logger: logger.With().Str("component", "approval").Logger(),
		now:    time.Now,
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.degrade(fmt.Errorf("failed to create cache directory: %w", err))
		return s
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		s.degrade(fmt.Errorf("open database: %w", err))
		return s
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		s.degrade(fmt.Errorf("initialize schema: %w", err))
		return s
	}

	s.db = db
	s.logger.Debug().Str("path", s.path).Msg("approval cache opened")
	return s
}

// Path returns the store file location.
func (s *Store) Path() string { return s.path }

// Available reports whether the store is usable.
func (s *Store) Available() bool { return s.err == nil }

// IsApproved reports whether d has been approved. Any store failure reads as
// "not approved".
func (s *Store) IsApproved(d Digest) bool {
	_, ok := s.Get(d)
	return ok
}

// Get returns the record for d, if any.
func (s *Store) Get(d Digest) (Record, bool) {
	if s.err != nil {
		return Record{}, false
	}
	var ts int64
	err := s.db.QueryRow(`SELECT approved_at FROM approvals WHERE digest = ?`, d[:]).Scan(&ts)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.warn(fmt.Errorf("lookup %s: %w", d, err))
		}
		return Record{}, false
	}
	return Record{Digest: d, ApprovedAt: time.Unix(0, ts)}, true
}

// RecordApproval stores an approval for d. Approving an already approved
// digest is a no-op.
func (s *Store) RecordApproval(d Digest) error {
	if s.err != nil {
		return &CacheUnavailableError{Path: s.path, Err: s.err}
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO approvals (digest, approved_at) VALUES (?, ?)`,
		d[:], s.now().UnixNano(),
	)
	if err != nil {
		return &CacheUnavailableError{Path: s.path, Err: err}
	}
	s.logger.Debug().Str("digest", d.String()).Msg("approval recorded")
	return nil
}

// Count returns the number of approvals in the store.
func (s *Store) Count() int {
	if s.err != nil {
		return 0
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM approvals`).Scan(&n); err != nil {
		s.warn(fmt.Errorf("count: %w", err))
		return 0
	}
	return n
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) degrade(err error) {
	s.err = err
	s.warn(err)
}

func (s *Store) warn(err error) {
	s.warnOnce.Do(func() {
		s.logger.Warn().Err(err).Str("path", s.path).
			Msg("approval cache unavailable, showing all diffs")
	})
}

// fileName maps a project key such as "gitlab.com/group/repo" to a
// filesystem-safe database name. The readable prefix is lossy, so a short
// hash of the exact key keeps distinct projects in distinct files.
func fileName(projectKey string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	name := r.Replace(strings.Trim(projectKey, "/"))
	if name == "" {
		name = "default"
	}
	sum := sha1.Sum([]byte(projectKey))
	return name + "-" + hex.EncodeToString(sum[:8]) + ".db"
}
