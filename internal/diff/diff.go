package diff

import (
	"fmt"
	"path"
)

// Kind classifies one aligned row.
type Kind byte

const (
	KindContext Kind = iota
	KindAdded
	KindRemoved
)

func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindRemoved:
		return "removed"
	default:
		return "context"
	}
}

// AlignedLine is one row of the side-by-side view. A zero line number means
// the row is a filler on that side.
type AlignedLine struct {
	Kind    Kind
	OldLine int
	NewLine int
	Text    string
}

// HasOld reports whether the row has content in the old pane.
func (l AlignedLine) HasOld() bool { return l.Kind != KindAdded }

// HasNew reports whether the row has content in the new pane.
func (l AlignedLine) HasNew() bool { return l.Kind != KindRemoved }

// OldText returns the old-pane text, or "" for a filler row.
func (l AlignedLine) OldText() string {
	if !l.HasOld() {
		return ""
	}
	return l.Text
}

// NewText returns the new-pane text, or "" for a filler row.
func (l AlignedLine) NewText() string {
	if !l.HasNew() {
		return ""
	}
	return l.Text
}

// Hunk is one contiguous change region.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string // function context after the closing @@, if any
	Lines    []AlignedLine
}

// Header renders the hunk's @@ line.
func (h Hunk) Header() string {
	s := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	if h.Section != "" {
		s += " " + h.Section
	}
	return s
}

// Diff is one changed file within a merge request. It is never mutated after New.
type Diff struct {
	OldPath     string
	NewPath     string
	Raw         string
	NewFile     bool
	DeletedFile bool
	RenamedFile bool
	Hunks       []Hunk
}

// New parses raw and wraps it together with its path metadata.
func New(oldPath, newPath, raw string) (*Diff, error) {
	hunks, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Diff{
		OldPath: oldPath,
		NewPath: newPath,
		Raw:     raw,
		Hunks:   hunks,
	}, nil
}

// Path returns the path the diff is displayed and commented under.
func (d *Diff) Path() string {
	if d.NewPath != "" {
		return d.NewPath
	}
	return d.OldPath
}

// Ext returns the file extension of Path, e.g. ".go".
func (d *Diff) Ext() string {
	return path.Ext(d.Path())
}

// Rows flattens all hunks into one row sequence. hunkStarts[i] is the row
// index where hunk i begins.
func (d *Diff) Rows() (rows []AlignedLine, hunkStarts []int) {
	n := 0
	for _, h := range d.Hunks {
		n += len(h.Lines)
	}
	rows = make([]AlignedLine, 0, n)
	hunkStarts = make([]int, len(d.Hunks))
	for i, h := range d.Hunks {
		hunkStarts[i] = len(rows)
		rows = append(rows, h.Lines...)
	}
	return rows, hunkStarts
}

// FindNewLine returns the row whose new-side line number is n.
func (d *Diff) FindNewLine(n int) (AlignedLine, bool) {
	if n <= 0 {
		return AlignedLine{}, false
	}
	for _, h := range d.Hunks {
		if n < h.NewStart || n >= h.NewStart+h.NewCount {
			continue
		}
		for _, l := range h.Lines {
			if l.NewLine == n {
				return l, true
			}
		}
	}
	return AlignedLine{}, false
}

// Stats counts added and removed rows across all hunks.
func (d *Diff) Stats() (added, removed int) {
	for _, h := range d.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case KindAdded:
				added++
			case KindRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// StatusLabel formats the file header label with status and change counts.
func (d *Diff) StatusLabel() string {
	added, removed := d.Stats()
	switch {
	case d.NewFile:
		return fmt.Sprintf("%s (new file, +%d)", d.Path(), added)
	case d.DeletedFile:
		return fmt.Sprintf("%s (deleted, -%d)", d.Path(), removed)
	case d.RenamedFile:
		return fmt.Sprintf("%s → %s (renamed, +%d/-%d)", d.OldPath, d.NewPath, added, removed)
	default:
		return fmt.Sprintf("%s (+%d/-%d)", d.Path(), added, removed)
	}
}
