package review

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shhac/mrtea/internal/approval"
	"github.com/shhac/mrtea/internal/diff"
	"github.com/shhac/mrtea/internal/gitlab"
)

// Options configures a Session.
type Options struct {
	// All disables cache filtering: every diff is navigable.
	All    bool
	Cache  Cache
	Remote Remote
	// Notes are existing positioned comments, shown as markers.
	Notes  []gitlab.DiffNote
	Logger zerolog.Logger
}

// Session is the review state for one merge request. It is not safe for
// concurrent use; the UI mutates it only from its update loop.
type Session struct {
	mr       *gitlab.MergeRequest
	diffs    []*diff.Diff
	digests  []approval.Digest
	approved []bool

	// order holds indices into diffs: the navigable sequence.
	order []int
	pos   int
	all   bool

	cache  Cache
	remote Remote
	notes  map[string]map[int]int
	logger zerolog.Logger
}

// NewSession builds the navigable sequence. Unless opts.All is set, diffs
// whose digest is already in the cache are left out.
func NewSession(mr *gitlab.MergeRequest, diffs []*diff.Diff, opts Options) *Session {
	s := &Session{
		mr:       mr,
		diffs:    diffs,
		digests:  make([]approval.Digest, len(diffs)),
		approved: make([]bool, len(diffs)),
		all:      opts.All,
		cache:    opts.Cache,
		remote:   opts.Remote,
		notes:    make(map[string]map[int]int),
		logger:   opts.Logger.With().Str("component", "review").Logger(),
	}

	for i, d := range diffs {
		s.digests[i] = approval.Hash(d.Raw)
		if s.cache != nil {
			s.approved[i] = s.cache.IsApproved(s.digests[i])
		}
		if s.all || !s.approved[i] {
			s.order = append(s.order, i)
		}
	}
	for _, n := range opts.Notes {
		s.addNote(n.Path, n.Line)
	}

	s.logger.Info().
		Int("diffs", len(diffs)).
		Int("navigable", len(s.order)).
		Bool("all", s.all).
		Msg("session loaded")
	return s
}

// MergeRequest returns the merge request under review.
func (s *Session) MergeRequest() *gitlab.MergeRequest { return s.mr }

// All reports whether cache filtering is disabled.
func (s *Session) All() bool { return s.all }

// Count is the length of the navigable sequence.
func (s *Session) Count() int { return len(s.order) }

// Total is the number of diffs fetched, including hidden ones.
func (s *Session) Total() int { return len(s.diffs) }

// Hidden is the number of diffs skipped because they were already approved.
func (s *Session) Hidden() int { return len(s.diffs) - len(s.order) }

// Index is the position within the navigable sequence.
func (s *Session) Index() int { return s.pos }

// Current returns the diff at the navigation index, or nil when the
// navigable sequence is empty.
func (s *Session) Current() *diff.Diff {
	if len(s.order) == 0 {
		return nil
	}
	return s.diffs[s.order[s.pos]]
}

// CurrentApproved reports whether the current diff is in the cache or was
// approved during this run.
func (s *Session) CurrentApproved() bool {
	if len(s.order) == 0 {
		return false
	}
	return s.approved[s.order[s.pos]]
}

// Remaining counts navigable diffs not yet approved.
func (s *Session) Remaining() int {
	n := 0
	for _, i := range s.order {
		if !s.approved[i] {
			n++
		}
	}
	return n
}

// NoteCount returns how many comments are anchored at a new-side line.
func (s *Session) NoteCount(path string, line int) int {
	return s.notes[path][line]
}

// NoteLines returns the commented new-side lines of path.
func (s *Session) NoteLines(path string) map[int]int {
	return s.notes[path]
}

// Next moves forward one diff. It reports false at the end.
func (s *Session) Next() bool {
	if s.pos+1 >= len(s.order) {
		return false
	}
	s.pos++
	return true
}

// Prev moves back one diff. It reports false at the start.
func (s *Session) Prev() bool {
	if s.pos == 0 {
		return false
	}
	s.pos--
	return true
}

// Goto sets the navigation index to n.
func (s *Session) Goto(n int) error {
	if n < 0 || n >= len(s.order) {
		return &NavigationRangeError{N: n, Count: len(s.order)}
	}
	s.pos = n
	return nil
}

// approve marks the diff at navigable position p approved and records it.
// A cache failure still approves for this run.
func (s *Session) approve(p int) error {
	i := s.order[p]
	s.approved[i] = true
	if s.cache == nil {
		return nil
	}
	if err := s.cache.RecordApproval(s.digests[i]); err != nil {
		s.logger.Warn().Err(err).Str("path", s.diffs[i].Path()).Msg("approval not persisted")
		return err
	}
	return nil
}

// advance moves past position p: to the next unapproved diff, wrapping
// around, or with All set simply to p+1. It reports false when there is
// nowhere left to go.
func (s *Session) advance(p int) bool {
	if s.all {
		if p+1 < len(s.order) {
			s.pos = p + 1
			return true
		}
		return false
	}
	for step := 1; step < len(s.order); step++ {
		q := (p + step) % len(s.order)
		if !s.approved[s.order[q]] {
			s.pos = q
			return true
		}
	}
	return false
}

func (s *Session) addNote(path string, line int) {
	if line <= 0 {
		return
	}
	m, ok := s.notes[path]
	if !ok {
		m = make(map[int]int)
		s.notes[path] = m
	}
	m[line]++
}

// Position formats "Diff i of n" for the header.
func (s *Session) Position() string {
	if len(s.order) == 0 {
		return "No diffs"
	}
	return fmt.Sprintf("Diff %d of %d", s.pos+1, len(s.order))
}
