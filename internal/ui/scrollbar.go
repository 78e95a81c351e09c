package ui

import "strings"

// renderScrollbar draws the one-column bar beside the diff. Rows scale to the
// rendered line count. A ● marks rows holding a new-side line with notes.
func (m DiffViewerModel) renderScrollbar() string {
	height := m.viewport.Height
	totalLines := m.viewport.TotalLineCount()
	if height <= 0 {
		return ""
	}
	if totalLines <= 0 {
		return strings.Repeat(" \n", height-1) + " "
	}

	thumbSize := max(1, min(height, height*height/totalLines))
	thumbStart := m.viewport.YOffset * height / totalLines
	if thumbStart+thumbSize > height {
		thumbStart = height - thumbSize
	}

	marked := make([]bool, height)
	for i, info := range m.infos {
		if !info.comment {
			continue
		}
		row := min(i*height/totalLines, height-1)
		marked[row] = true
	}

	rows := make([]string, height)
	for i := 0; i < height; i++ {
		inThumb := i >= thumbStart && i < thumbStart+thumbSize
		switch {
		case inThumb && marked[i]:
			rows[i] = scrollbarCommentStyle.Render("┃")
		case inThumb:
			rows[i] = scrollbarThumbStyle.Render("┃")
		case marked[i]:
			rows[i] = scrollbarCommentStyle.Render("●")
		default:
			rows[i] = scrollbarTrackStyle.Render("│")
		}
	}
	return strings.Join(rows, "\n")
}
