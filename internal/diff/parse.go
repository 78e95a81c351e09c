package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MalformedDiffError reports a hunk that could not be parsed. Line is the
// 1-based line within the raw diff text.
type MalformedDiffError struct {
	Line   int
	Reason string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff at line %d: %s", e.Line, e.Reason)
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

// Parse splits unified-diff text into hunks of aligned rows. Lines before the
// first hunk header (diff --git, index, ---, +++) are ignored and
// "\ No newline at end of file" markers are dropped.
func Parse(raw string) ([]Hunk, error) {
	if raw == "" {
		return nil, nil
	}
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")

	var (
		hunks            []Hunk
		cur              *Hunk
		oldLeft, newLeft int
		oldNo, newNo     int
	)

	finish := func(lineNo int) error {
		if cur == nil {
			return nil
		}
		if oldLeft > 0 || newLeft > 0 {
			return &MalformedDiffError{
				Line:   lineNo,
				Reason: fmt.Sprintf("hunk %q is missing %d old and %d new lines", cur.Header(), oldLeft, newLeft),
			}
		}
		hunks = append(hunks, *cur)
		cur = nil
		return nil
	}

	for i, line := range lines {
		lineNo := i + 1

		if strings.HasPrefix(line, "@@") {
			if err := finish(lineNo); err != nil {
				return nil, err
			}
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, &MalformedDiffError{Line: lineNo, Reason: err.Error()}
			}
			cur = &h
			oldLeft, newLeft = h.OldCount, h.NewCount
			oldNo, newNo = h.OldStart, h.NewStart
			continue
		}

		if cur == nil || strings.HasPrefix(line, `\`) {
			continue
		}

		if oldLeft == 0 && newLeft == 0 {
			if line == "" {
				continue
			}
			return nil, &MalformedDiffError{Line: lineNo, Reason: "line outside the declared hunk range"}
		}

		// Some producers strip the leading space from empty context lines.
		marker, text := byte(' '), ""
		if line != "" {
			marker, text = line[0], line[1:]
		}

		switch marker {
		case ' ':
			if oldLeft == 0 || newLeft == 0 {
				return nil, &MalformedDiffError{Line: lineNo, Reason: "context line exceeds declared counts"}
			}
			cur.Lines = append(cur.Lines, AlignedLine{Kind: KindContext, OldLine: oldNo, NewLine: newNo, Text: text})
			oldNo++
			newNo++
			oldLeft--
			newLeft--
		case '-':
			if oldLeft == 0 {
				return nil, &MalformedDiffError{Line: lineNo, Reason: "removed line exceeds declared old count"}
			}
			cur.Lines = append(cur.Lines, AlignedLine{Kind: KindRemoved, OldLine: oldNo, Text: text})
			oldNo++
			oldLeft--
		case '+':
			if newLeft == 0 {
				return nil, &MalformedDiffError{Line: lineNo, Reason: "added line exceeds declared new count"}
			}
			cur.Lines = append(cur.Lines, AlignedLine{Kind: KindAdded, NewLine: newNo, Text: text})
			newNo++
			newLeft--
		default:
			return nil, &MalformedDiffError{Line: lineNo, Reason: fmt.Sprintf("unknown line marker %q", marker)}
		}
	}

	if err := finish(len(lines)); err != nil {
		return nil, err
	}
	return hunks, nil
}

// parseHunkHeader parses "@@ -old_start[,old_count] +new_start[,new_count] @@ [section]".
// An omitted count means 1.
func parseHunkHeader(line string) (Hunk, error) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, fmt.Errorf("invalid hunk header %q", line)
	}
	nums := [4]int{0, 1, 0, 1}
	for i, s := range []string{m[1], m[2], m[3], m[4]} {
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Hunk{}, fmt.Errorf("invalid hunk header %q: %w", line, err)
		}
		nums[i] = n
	}
	return Hunk{
		OldStart: nums[0],
		OldCount: nums[1],
		NewStart: nums[2],
		NewCount: nums[3],
		Section:  strings.TrimSpace(m[5]),
	}, nil
}
