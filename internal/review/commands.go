package review

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shhac/mrtea/internal/approval"
	"github.com/shhac/mrtea/internal/diff"
	"github.com/shhac/mrtea/internal/gitlab"
)

// Action is a validated command, ready to apply.
type Action interface {
	isAction()
}

// ApproveDiff records the diff at navigable position Index as reviewed.
type ApproveDiff struct{ Index int }

// PostComment sends a line comment on the diff at navigable position Index.
type PostComment struct {
	Index   int
	Comment gitlab.NewComment
}

// Goto jumps to navigable position N.
type Goto struct{ N int }

// ApproveMergeRequest approves the whole merge request on GitLab.
type ApproveMergeRequest struct{}

// Next and Prev step through the navigable sequence.
type (
	Next struct{}
	Prev struct{}
)

// Quit ends the session.
type Quit struct{}

func (ApproveDiff) isAction()         {}
func (PostComment) isAction()         {}
func (Goto) isAction()                {}
func (ApproveMergeRequest) isAction() {}
func (Next) isAction()                {}
func (Prev) isAction()                {}
func (Quit) isAction()                {}

// IsRemote reports whether applying a needs the network.
func IsRemote(a Action) bool {
	switch a.(type) {
	case PostComment, ApproveMergeRequest:
		return true
	}
	return false
}

// Result describes what Apply did.
type Result struct {
	Message string
	// Done is set when `y` leaves no diff to advance to.
	Done bool
	Quit bool
}

// Interpret parses and validates one command line against s. It has no
// side effects.
func Interpret(input string, s *Session) (Action, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, &InvalidCommandArgumentError{Reason: "empty command"}
	}

	keyword, rest := splitWord(input)

	switch keyword {
	case "y":
		if rest != "" {
			return nil, &InvalidCommandArgumentError{Command: "y", Reason: "takes no arguments"}
		}
		if s.Current() == nil {
			return nil, &InvalidCommandArgumentError{Command: "y", Reason: "no diff to approve"}
		}
		return ApproveDiff{Index: s.pos}, nil

	case "c":
		return interpretComment(rest, s)

	case "g":
		if rest == "" || strings.ContainsAny(rest, " \t") {
			return nil, &InvalidCommandArgumentError{Command: "g", Reason: "usage: g <n>"}
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			return nil, &InvalidCommandArgumentError{Command: "g", Reason: fmt.Sprintf("%q is not a number", rest)}
		}
		if n < 0 || n >= s.Count() {
			return nil, &NavigationRangeError{N: n, Count: s.Count()}
		}
		return Goto{N: n}, nil

	case "approve":
		if rest != "" {
			return nil, &InvalidCommandArgumentError{Command: "approve", Reason: "takes no arguments"}
		}
		if s.mr == nil {
			return nil, &InvalidCommandArgumentError{Command: "approve", Reason: "no merge request loaded"}
		}
		return ApproveMergeRequest{}, nil

	case "n", "p", "q":
		if rest != "" {
			return nil, &InvalidCommandArgumentError{Command: keyword, Reason: "takes no arguments"}
		}
		switch keyword {
		case "n":
			return Next{}, nil
		case "p":
			return Prev{}, nil
		}
		return Quit{}, nil
	}
	return nil, &UnknownCommandError{Keyword: keyword}
}

// splitWord returns the first whitespace-delimited word of s and the rest,
// with the separating whitespace removed.
func splitWord(s string) (word, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func interpretComment(rest string, s *Session) (Action, error) {
	lineArg, body := splitWord(rest)

	if lineArg == "" {
		return nil, &InvalidCommandArgumentError{Command: "c", Reason: "usage: c <line> <text>"}
	}
	line, err := strconv.Atoi(lineArg)
	if err != nil || line <= 0 {
		return nil, &InvalidCommandArgumentError{Command: "c", Reason: fmt.Sprintf("line %q must be a positive integer", lineArg)}
	}
	if body == "" {
		return nil, &InvalidCommandArgumentError{Command: "c", Reason: "comment text is empty"}
	}

	d := s.Current()
	if d == nil {
		return nil, &InvalidCommandArgumentError{Command: "c", Reason: "no diff to comment on"}
	}
	if d.DeletedFile {
		return nil, &InvalidCommandArgumentError{Command: "c", Reason: "file was deleted, it has no new-side lines"}
	}

	return PostComment{Index: s.pos, Comment: newComment(d, line, body)}, nil
}

// newComment anchors body at new-side line. Unchanged lines are also
// anchored on the old side.
func newComment(d *diff.Diff, line int, body string) gitlab.NewComment {
	c := gitlab.NewComment{
		Path:    d.Path(),
		OldPath: d.OldPath,
		NewLine: line,
		Body:    body,
	}
	if row, ok := d.FindNewLine(line); ok && row.Kind == diff.KindContext {
		c.OldLine = row.OldLine
	}
	return c
}

// Apply performs a's side effects: Dispatch, then Complete.
func (s *Session) Apply(ctx context.Context, a Action) (Result, error) {
	if err := s.Dispatch(ctx, a); err != nil {
		return Result{}, err
	}
	return s.Complete(a), nil
}

// Dispatch runs the remote half of a, if any. It reads but never mutates
// the session, so it may run off the UI loop.
func (s *Session) Dispatch(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case PostComment:
		if s.remote == nil {
			return errors.New("no remote configured")
		}
		return s.remote.PostComment(ctx, s.mr, a.Comment)
	case ApproveMergeRequest:
		if s.remote == nil {
			return errors.New("no remote configured")
		}
		return s.remote.ApproveMergeRequest(ctx, s.mr)
	}
	return nil
}

// Complete applies the local state change of a after Dispatch succeeded.
func (s *Session) Complete(a Action) Result {
	switch a := a.(type) {
	case ApproveDiff:
		return s.completeApprove(a.Index)

	case PostComment:
		s.addNote(a.Comment.Path, a.Comment.NewLine)
		return Result{Message: fmt.Sprintf("Comment posted on line %d", a.Comment.NewLine)}

	case Goto:
		if err := s.Goto(a.N); err != nil {
			return Result{Message: err.Error()}
		}
		return Result{}

	case ApproveMergeRequest:
		s.logger.Info().Int("iid", s.mr.IID).Msg("merge request approved")
		return Result{Message: fmt.Sprintf("Merge request !%d approved", s.mr.IID)}

	case Next:
		if !s.Next() {
			return Result{Message: "Already at the last diff"}
		}
		return Result{}

	case Prev:
		if !s.Prev() {
			return Result{Message: "Already at the first diff"}
		}
		return Result{}

	case Quit:
		return Result{Quit: true}
	}
	return Result{}
}

func (s *Session) completeApprove(p int) Result {
	if p < 0 || p >= len(s.order) {
		return Result{Message: "Nothing to approve"}
	}

	msg := "Approved"
	if err := s.approve(p); err != nil {
		var cacheErr *approval.CacheUnavailableError
		if errors.As(err, &cacheErr) {
			msg = "Approved for this run only (approval cache unavailable)"
		} else {
			msg = fmt.Sprintf("Approved for this run only: %v", err)
		}
	}

	if !s.advance(p) {
		return Result{Message: msg + ". All diffs reviewed", Done: true}
	}
	return Result{Message: msg}
}
