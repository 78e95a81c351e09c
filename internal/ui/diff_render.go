package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/shhac/mrtea/internal/diff"
	"github.com/shhac/mrtea/internal/highlight"
)

const tabWidth = 4

// rowInfo describes one rendered viewport line.
type rowInfo struct {
	hunkHeader bool
	newLine    int // 0 when the new pane is empty on this line
	comment    bool
}

// paneLayout holds the column widths of one side-by-side line:
// old cell, divider, marker, new cell.
type paneLayout struct {
	numWidth int
	oldWidth int
	newWidth int
}

func newPaneLayout(width, maxLine int) paneLayout {
	numWidth := max(3, len(strconv.Itoa(maxLine)))
	// 1 for the divider, 1 for the comment marker.
	avail := max(2, width-2)
	return paneLayout{
		numWidth: numWidth,
		oldWidth: avail / 2,
		newWidth: avail - avail/2,
	}
}

// renderDiff lays d out as side-by-side lines exactly width cells wide.
// notes maps new-side line numbers to comment counts. Both panes share
// each line, so scrolling the result keeps them in step.
func renderDiff(d *diff.Diff, hl *highlight.Highlighter, notes map[int]int, width int) ([]string, []rowInfo) {
	if d == nil {
		return []string{renderEmptyState("No diffs to review", "Every diff was approved on an earlier run. Use --all to show them.")}, []rowInfo{{}}
	}
	rows, hunkStarts := d.Rows()
	if len(rows) == 0 {
		return []string{renderEmptyState("No textual changes", d.StatusLabel())}, []rowInfo{{}}
	}

	oldSpans, newSpans := highlightPanes(rows, hl, d)
	layout := newPaneLayout(width, maxLineNumber(rows))

	lines := make([]string, 0, len(rows)+len(hunkStarts))
	infos := make([]rowInfo, 0, len(rows)+len(hunkStarts))
	hunk := 0
	for i, row := range rows {
		for hunk < len(hunkStarts) && hunkStarts[hunk] == i {
			lines = append(lines, renderHunkHeader(d.Hunks[hunk], width))
			infos = append(infos, rowInfo{hunkHeader: true})
			hunk++
		}

		info := rowInfo{}
		if row.HasNew() {
			info.newLine = row.NewLine
			info.comment = notes[row.NewLine] > 0
		}

		marker := " "
		if info.comment {
			marker = commentMarkerStyle.Render("C")
		}

		old := renderCell(row.OldLine, oldSpans[i], row.HasOld(), rowBackground(row.Kind), layout.numWidth, layout.oldWidth)
		cur := renderCell(row.NewLine, newSpans[i], row.HasNew(), rowBackground(row.Kind), layout.numWidth, layout.newWidth)
		lines = append(lines, old+paneDividerStyle.Render("│")+marker+cur)
		infos = append(infos, info)
	}
	return lines, infos
}

// highlightPanes highlights each pane as one block so multi-line tokens keep
// their context, then maps the spans back onto row indexes.
func highlightPanes(rows []diff.AlignedLine, hl *highlight.Highlighter, d *diff.Diff) (oldSpans, newSpans [][]highlight.Span) {
	var oldText, newText []string
	var oldIdx, newIdx []int
	for i, row := range rows {
		text := expandTabs(row.Text)
		if row.HasOld() {
			oldText = append(oldText, text)
			oldIdx = append(oldIdx, i)
		}
		if row.HasNew() {
			newText = append(newText, text)
			newIdx = append(newIdx, i)
		}
	}

	oldName := d.OldPath
	if oldName == "" {
		oldName = d.Path()
	}

	oldSpans = make([][]highlight.Span, len(rows))
	newSpans = make([][]highlight.Span, len(rows))
	if len(oldText) > 0 {
		for j, spans := range hl.HighlightLines(oldText, oldName) {
			oldSpans[oldIdx[j]] = spans
		}
	}
	if len(newText) > 0 {
		for j, spans := range hl.HighlightLines(newText, d.Path()) {
			newSpans[newIdx[j]] = spans
		}
	}
	return oldSpans, newSpans
}

func rowBackground(k diff.Kind) lipgloss.TerminalColor {
	switch k {
	case diff.KindAdded:
		return addedBg
	case diff.KindRemoved:
		return removedBg
	}
	return lipgloss.NoColor{}
}

// renderCell renders one pane of one row: line number gutter and text,
// truncated and padded to width. A filler cell is blank.
func renderCell(lineNo int, spans []highlight.Span, present bool, bg lipgloss.TerminalColor, numWidth, width int) string {
	if width <= 0 {
		return ""
	}
	if !present {
		return fillerStyle.Render(strings.Repeat("╱", width))
	}

	gutter := lineNumberStyle.Background(bg).Render(fmt.Sprintf("%*d ", numWidth, lineNo))
	cell := gutter + renderSpans(spans, bg)
	cell = truncate.StringWithTail(cell, uint(width), "…")
	if pad := width - ansi.PrintableRuneWidth(cell); pad > 0 {
		cell += lipgloss.NewStyle().Background(bg).Render(strings.Repeat(" ", pad))
	}
	return cell
}

// renderSpans converts highlighted spans into ANSI-styled text.
func renderSpans(spans []highlight.Span, bg lipgloss.TerminalColor) string {
	var b strings.Builder
	for _, sp := range spans {
		st := lipgloss.NewStyle().Background(bg)
		if sp.Color != "" {
			st = st.Foreground(lipgloss.Color(sp.Color))
		}
		if sp.Bold {
			st = st.Bold(true)
		}
		if sp.Italic {
			st = st.Italic(true)
		}
		b.WriteString(st.Render(sp.Text))
	}
	return b.String()
}

func renderHunkHeader(h diff.Hunk, width int) string {
	header := hunkHeaderStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount))
	if h.Section != "" {
		header += " " + hunkSectionStyle.Render(h.Section)
	}
	return truncate.StringWithTail(header, uint(max(1, width)), "…")
}

func maxLineNumber(rows []diff.AlignedLine) int {
	n := 0
	for _, r := range rows {
		n = max(n, r.OldLine, r.NewLine)
	}
	return n
}

// expandTabs replaces tabs with spaces up to the next tab stop so cell
// widths are predictable.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
