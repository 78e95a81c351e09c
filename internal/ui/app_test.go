package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/shhac/mrtea/internal/approval"
	"github.com/shhac/mrtea/internal/diff"
	"github.com/shhac/mrtea/internal/gitlab"
	"github.com/shhac/mrtea/internal/notify"
	"github.com/shhac/mrtea/internal/review"
)

type memCache struct {
	approved map[approval.Digest]bool
}

func (c *memCache) IsApproved(d approval.Digest) bool { return c.approved[d] }

func (c *memCache) RecordApproval(d approval.Digest) error {
	c.approved[d] = true
	return nil
}

type stubRemote struct {
	comments []gitlab.NewComment
	approved int
	err      error
}

func (r *stubRemote) PostComment(_ context.Context, _ *gitlab.MergeRequest, c gitlab.NewComment) error {
	if r.err != nil {
		return r.err
	}
	r.comments = append(r.comments, c)
	return nil
}

func (r *stubRemote) ApproveMergeRequest(context.Context, *gitlab.MergeRequest) error {
	if r.err != nil {
		return r.err
	}
	r.approved++
	return nil
}

func newTestApp(t *testing.T, n int, opts Options) (App, *review.Session, *stubRemote, *memCache) {
	t.Helper()
	diffs := make([]*diff.Diff, n)
	for i := range diffs {
		raw := fmt.Sprintf("@@ -1,2 +1,3 @@\n context %d\n-old\n+new\n+more\n", i)
		diffs[i] = mustDiff(t, fmt.Sprintf("pkg/file%d.go", i), raw)
	}
	cache := &memCache{approved: make(map[approval.Digest]bool)}
	remote := &stubRemote{}
	mr := &gitlab.MergeRequest{Project: "group/repo", IID: 7, Title: "Add widgets", Author: "sam", SourceBranch: "feat", TargetBranch: "main", WebURL: "https://gitlab.example.com/group/repo/-/merge_requests/7"}
	s := review.NewSession(mr, diffs, review.Options{Cache: cache, Remote: remote, Logger: zerolog.Nop()})

	opts.Logger = zerolog.Nop()
	m := New(s, opts)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return model.(App), s, remote, cache
}

func press(t *testing.T, m App, k string) (App, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+q":
		msg = tea.KeyMsg{Type: tea.KeyCtrlQ}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	model, cmd := m.Update(msg)
	return model.(App), cmd
}

// submit types line into the command bar and feeds the submit message back.
func submit(t *testing.T, m App, line string) (App, tea.Cmd) {
	t.Helper()
	m, _ = press(t, m, ":")
	if !m.commandBar.IsActive() {
		t.Fatal(": should open the command line")
	}
	m, _ = press(t, m, line)
	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("enter should emit a submit message")
	}
	model, cmd := m.Update(cmd())
	return model.(App), cmd
}

// runDispatch executes a dispatch batch and returns its RemoteDoneMsg. Only
// use it on batches that contain no timers.
func runDispatch(t *testing.T, cmd tea.Cmd) RemoteDoneMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		batch = tea.BatchMsg{func() tea.Msg { return msg }}
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if done, ok := c().(RemoteDoneMsg); ok {
			return done
		}
	}
	t.Fatal("no RemoteDoneMsg in batch")
	return RemoteDoneMsg{}
}

func TestApp_ApproveKeyAdvances(t *testing.T) {
	m, s, _, cache := newTestApp(t, 2, Options{})

	m, _ = press(t, m, "y")
	if s.Index() != 1 {
		t.Errorf("index = %d, want 1", s.Index())
	}
	if len(cache.approved) != 1 {
		t.Errorf("cache holds %d approvals, want 1", len(cache.approved))
	}
	if m.statusBar.Message() != "Approved" {
		t.Errorf("status = %q", m.statusBar.Message())
	}
	if !strings.Contains(m.View(), "pkg/file1.go") {
		t.Error("view should show the next diff")
	}
}

func TestApp_LastApprovalNotifies(t *testing.T) {
	var sent []string
	n := &notify.Notifier{
		App:  "mrtea",
		GOOS: "linux",
		Run: func(_ string, args ...string) error {
			sent = append(sent, strings.Join(args, " "))
			return nil
		},
	}
	m, _, _, _ := newTestApp(t, 1, Options{Notifier: n})

	m, cmd := press(t, m, "y")
	if !strings.Contains(m.statusBar.Message(), "All diffs reviewed") {
		t.Errorf("status = %q", m.statusBar.Message())
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("want status timer plus notification, got %#v", cmd())
	}
	batch[1]()
	if len(sent) != 1 || !strings.Contains(sent[0], "group/repo!7") {
		t.Errorf("notifications = %q", sent)
	}
}

func TestApp_CommentRoundTrip(t *testing.T) {
	m, s, remote, _ := newTestApp(t, 2, Options{})

	m, cmd := submit(t, m, "c 2 needs a test")
	if !m.statusBar.Busy() {
		t.Fatal("remote action should mark the UI busy")
	}

	// Commands are refused while the comment is in flight.
	m, _ = press(t, m, "y")
	if s.Index() != 0 {
		t.Error("y must not run while busy")
	}
	if !strings.Contains(m.statusBar.Message(), "Wait for the current action") {
		t.Errorf("status = %q", m.statusBar.Message())
	}

	done := runDispatch(t, cmd)
	if done.Err != nil {
		t.Fatalf("dispatch: %v", done.Err)
	}
	model, _ := m.Update(done)
	m = model.(App)

	if m.statusBar.Busy() {
		t.Error("busy should clear when the action returns")
	}
	if len(remote.comments) != 1 || remote.comments[0].NewLine != 2 || remote.comments[0].Body != "needs a test" {
		t.Fatalf("comments = %+v", remote.comments)
	}
	if s.NoteCount("pkg/file0.go", 2) != 1 {
		t.Error("posted comment should be counted")
	}
	marked := false
	for _, info := range m.diffViewer.infos {
		if info.comment && info.newLine == 2 {
			marked = true
		}
	}
	if !marked {
		t.Error("new line 2 should show a comment marker")
	}
}

func TestApp_RemoteErrorIsInline(t *testing.T) {
	m, s, remote, _ := newTestApp(t, 1, Options{})
	remote.err = &gitlab.TransientError{Op: "approve", StatusCode: 503, Err: errors.New("unavailable")}

	m, cmd := submit(t, m, "approve")
	model, _ := m.Update(runDispatch(t, cmd))
	m = model.(App)

	if !strings.Contains(m.statusBar.Message(), "Retry") {
		t.Errorf("status = %q", m.statusBar.Message())
	}
	if m.statusBar.Busy() {
		t.Error("busy should clear after a failure")
	}
	if s.Current() == nil {
		t.Error("session should continue after a remote error")
	}
}

func TestApp_InvalidCommandIsInline(t *testing.T) {
	m, s, _, _ := newTestApp(t, 2, Options{})

	m, _ = submit(t, m, "g 9")
	if !strings.Contains(m.statusBar.Message(), "out of range") {
		t.Errorf("status = %q", m.statusBar.Message())
	}
	if s.Index() != 0 {
		t.Error("failed command must not move the cursor")
	}

	m, _ = submit(t, m, "g 1")
	if s.Index() != 1 {
		t.Errorf("g 1: index = %d", s.Index())
	}
	if !strings.Contains(m.View(), "Diff 2 of 2") {
		t.Error("header should show the 1-based position")
	}
}

func TestApp_NavigationKeys(t *testing.T) {
	m, s, _, _ := newTestApp(t, 3, Options{})

	m, _ = press(t, m, "n")
	m, _ = press(t, m, "n")
	if s.Index() != 2 {
		t.Fatalf("index = %d, want 2", s.Index())
	}
	m, _ = press(t, m, "n")
	if !strings.Contains(m.statusBar.Message(), "last diff") {
		t.Errorf("status = %q", m.statusBar.Message())
	}
	_, _ = press(t, m, "p")
	if s.Index() != 1 {
		t.Errorf("index = %d, want 1", s.Index())
	}
}

func TestApp_Quit(t *testing.T) {
	m, _, _, _ := newTestApp(t, 1, Options{})

	for _, k := range []string{"q", "ctrl+q"} {
		_, cmd := press(t, m, k)
		if cmd == nil {
			t.Fatalf("%s: no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", k)
		}
	}

	_, cmd := submit(t, m, "q")
	if cmd == nil {
		t.Fatal(":q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error(":q should quit")
	}
}

func TestApp_ViewHeader(t *testing.T) {
	m, _, _, _ := newTestApp(t, 2, Options{})
	v := m.View()
	for _, want := range []string{"!7", "Add widgets", "@sam", "feat → main", "pkg/file0.go", "Diff 1 of 2", "PENDING"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestApp_HelpToggle(t *testing.T) {
	m, _, _, _ := newTestApp(t, 1, Options{})
	short := m.diffViewer.viewport.Height

	m, _ = press(t, m, "?")
	if !m.help.ShowAll {
		t.Fatal("? should expand the help")
	}
	if m.diffViewer.viewport.Height >= short {
		t.Errorf("full help should take rows from the diff, height %d -> %d", short, m.diffViewer.viewport.Height)
	}
}

func TestApp_StartupWarning(t *testing.T) {
	m, _, _, _ := newTestApp(t, 1, Options{Warnings: []string{"approval cache unavailable", "skipped a.go"}})
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("warnings should produce an init command")
	}
	model, _ := m.Update(cmd())
	m = model.(App)
	if got := m.statusBar.Message(); !strings.Contains(got, "approval cache unavailable") || !strings.Contains(got, "+1 more") {
		t.Errorf("status = %q", got)
	}
}

func TestApp_OpenBrowser(t *testing.T) {
	var opened string
	m, _, _, _ := newTestApp(t, 1, Options{OpenURL: func(u string) error { opened = u; return nil }})

	_, cmd := press(t, m, "o")
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("got %#v", cmd())
	}
	batch[0]()
	if !strings.HasSuffix(opened, "/merge_requests/7") {
		t.Errorf("opened %q", opened)
	}
}
