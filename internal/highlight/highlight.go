// Package highlight turns source text into colored spans.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "gruvbox"

// Span is a run of text sharing one style. Color is "#rrggbb" or empty for
// the terminal default.
type Span struct {
	Text   string
	Color  string
	Bold   bool
	Italic bool
}

// Highlighter tokenizes text with the lexer matching a file name.
type Highlighter struct {
	style *chroma.Style
}

// New returns a highlighter for the named chroma style. Unknown names fall
// back to chroma's default style.
func New(styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}
	return &Highlighter{style: styles.Get(styleName)}
}

// Highlight returns the spans of a single line of text.
func (h *Highlighter) Highlight(text, filename string) []Span {
	return h.HighlightLines([]string{text}, filename)[0]
}

// HighlightLines highlights lines as one contiguous block, so multi-line
// constructs keep their context, and returns one span slice per input line.
// A file name with no matching lexer yields one unstyled span per line.
func (h *Highlighter) HighlightLines(lines []string, filename string) [][]Span {
	out := make([][]Span, len(lines))
	lexer := lexers.Match(filename)
	if lexer == nil {
		return plain(lines)
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return plain(lines)
	}

	row := 0
	for _, tok := range it.Tokens() {
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				row++
			}
			if row >= len(lines) {
				break
			}
			if part == "" {
				continue
			}
			out[row] = appendSpan(out[row], h.span(tok.Type, part))
		}
	}
	return out
}

func (h *Highlighter) span(tt chroma.TokenType, text string) Span {
	entry := h.style.Get(tt)
	sp := Span{
		Text:   text,
		Bold:   entry.Bold == chroma.Yes,
		Italic: entry.Italic == chroma.Yes,
	}
	if entry.Colour.IsSet() {
		sp.Color = entry.Colour.String()
	}
	return sp
}

// appendSpan merges sp into the previous span when the styles match.
func appendSpan(spans []Span, sp Span) []Span {
	if n := len(spans); n > 0 {
		last := &spans[n-1]
		if last.Color == sp.Color && last.Bold == sp.Bold && last.Italic == sp.Italic {
			last.Text += sp.Text
			return spans
		}
	}
	return append(spans, sp)
}

func plain(lines []string) [][]Span {
	out := make([][]Span, len(lines))
	for i, l := range lines {
		if l != "" {
			out[i] = []Span{{Text: l}}
		}
	}
	return out
}

// Text concatenates the spans' text.
func Text(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}
