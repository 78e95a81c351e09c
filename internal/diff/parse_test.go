package diff

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_ReplacementWithExtraLine(t *testing.T) {
	raw := "@@ -1,2 +1,3 @@\n context\n-old line\n+new line\n+second new line"

	hunks, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(hunks) != 1 {
		t.Fatalf("got %d hunks, want 1", len(hunks))
	}

	want := []AlignedLine{
		{Kind: KindContext, OldLine: 1, NewLine: 1, Text: "context"},
		{Kind: KindRemoved, OldLine: 2, Text: "old line"},
		{Kind: KindAdded, NewLine: 2, Text: "new line"},
		{Kind: KindAdded, NewLine: 3, Text: "second new line"},
	}
	if diff := cmp.Diff(want, hunks[0].Lines); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	// Both panes have one entry (text or filler) per row.
	var oldPane, newPane []string
	for _, l := range hunks[0].Lines {
		oldPane = append(oldPane, l.OldText())
		newPane = append(newPane, l.NewText())
	}
	if len(oldPane) != 4 || len(newPane) != 4 {
		t.Errorf("pane lengths = %d/%d, want 4/4", len(oldPane), len(newPane))
	}
	if oldPane[2] != "" || oldPane[3] != "" {
		t.Errorf("old pane should have fillers for added rows, got %q", oldPane)
	}
	if newPane[1] != "" {
		t.Errorf("new pane should have a filler for the removed row, got %q", newPane[1])
	}
}

func TestParse_CountsMatchHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"pure insertion", "@@ -0,0 +1,3 @@\n+a\n+b\n+c\n"},
		{"pure deletion", "@@ -1,2 +0,0 @@\n-a\n-b\n"},
		{"mixed", "@@ -10,4 +10,5 @@ func main() {\n a\n-b\n+B\n+B2\n c\n d\n"},
		{"two hunks", "@@ -1,1 +1,1 @@\n-x\n+y\n@@ -20,2 +20,1 @@\n keep\n-drop\n"},
		{"implicit counts", "@@ -3 +3 @@\n-x\n+y\n"},
		{"with file headers", "diff --git a/f.go b/f.go\nindex 1..2 100644\n--- a/f.go\n+++ b/f.go\n@@ -1 +1,2 @@\n x\n+y\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hunks, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			for i, h := range hunks {
				var oldN, newN int
				for _, l := range h.Lines {
					switch l.Kind {
					case KindContext:
						oldN++
						newN++
					case KindRemoved:
						oldN++
					case KindAdded:
						newN++
					}
				}
				if oldN != h.OldCount {
					t.Errorf("hunk %d: old lines = %d, want %d", i, oldN, h.OldCount)
				}
				if newN != h.NewCount {
					t.Errorf("hunk %d: new lines = %d, want %d", i, newN, h.NewCount)
				}
			}
		})
	}
}

func TestParse_LineNumbers(t *testing.T) {
	hunks, err := Parse("@@ -10,3 +20,3 @@\n a\n-b\n+c\n d\n")
	if err != nil {
		t.Fatal(err)
	}
	want := []AlignedLine{
		{Kind: KindContext, OldLine: 10, NewLine: 20, Text: "a"},
		{Kind: KindRemoved, OldLine: 11, Text: "b"},
		{Kind: KindAdded, NewLine: 21, Text: "c"},
		{Kind: KindContext, OldLine: 12, NewLine: 22, Text: "d"},
	}
	if diff := cmp.Diff(want, hunks[0].Lines); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoNewlineMarkerDropped(t *testing.T) {
	raw := "@@ -1,1 +1,1 @@\n-old\n\\ No newline at end of file\n+new\n\\ No newline at end of file\n"
	hunks, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(hunks[0].Lines); got != 2 {
		t.Fatalf("got %d rows, want 2", got)
	}
	for _, l := range hunks[0].Lines {
		if l.Text == " No newline at end of file" {
			t.Error("no-newline marker should not be rendered")
		}
	}
}

func TestParse_EmptyContextLine(t *testing.T) {
	hunks, err := Parse("@@ -1,3 +1,3 @@\n a\n\n b\n")
	if err != nil {
		t.Fatal(err)
	}
	mid := hunks[0].Lines[1]
	if mid.Kind != KindContext || mid.OldLine != 2 || mid.NewLine != 2 || mid.Text != "" {
		t.Errorf("stripped blank line = %+v, want empty context at 2/2", mid)
	}
}

func TestParse_Section(t *testing.T) {
	hunks, err := Parse("@@ -1 +1 @@ func main() {\n-a\n+b\n")
	if err != nil {
		t.Fatal(err)
	}
	if hunks[0].Section != "func main() {" {
		t.Errorf("Section = %q", hunks[0].Section)
	}
	if hunks[0].Header() != "@@ -1,1 +1,1 @@ func main() {" {
		t.Errorf("Header() = %q", hunks[0].Header())
	}
}

func TestParse_Empty(t *testing.T) {
	hunks, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if len(hunks) != 0 {
		t.Errorf("got %d hunks, want 0", len(hunks))
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		line int
	}{
		{"bad header", "@@ -a,1 +1,1 @@\n x\n", 1},
		{"too few lines", "@@ -1,3 +1,3 @@\n a\n b\n", 3},
		{"too few before next hunk", "@@ -1,2 +1,2 @@\n a\n@@ -9,1 +9,1 @@\n b\n", 3},
		{"too many added", "@@ -1,1 +1,1 @@\n-a\n+b\n+c\n", 4},
		{"too many removed", "@@ -1,1 +1,2 @@\n-a\n-b\n", 3},
		{"unknown marker", "@@ -1,2 +1,2 @@\n a\n*b\n", 3},
		{"trailing garbage", "@@ -1,1 +1,1 @@\n a\ngarbage\n", 3},
		{"overflowing start", "@@ -99999999999999999999,1 +1,1 @@\n a\n", 1},
		{"overflowing count", "@@ -1,1 +1,99999999999999999999 @@\n a\n", 1},
		{"overflow in later hunk", "@@ -1,1 +1,1 @@\n a\n@@ -5,1 +99999999999999999999,1 @@\n b\n", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			var mErr *MalformedDiffError
			if !errors.As(err, &mErr) {
				t.Fatalf("err = %v, want *MalformedDiffError", err)
			}
			if mErr.Line != tt.line {
				t.Errorf("Line = %d, want %d (%s)", mErr.Line, tt.line, mErr.Reason)
			}
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	raw := "@@ -1,2 +1,2 @@\n a\n-b\n+c\n"
	first, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("re-parse differs:\n%s", diff)
	}
}
