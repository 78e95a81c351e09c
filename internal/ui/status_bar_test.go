package ui

import (
	"strings"
	"testing"
	"time"
)

func TestStatusBar_ClearIfSeqMatch(t *testing.T) {
	m := NewStatusBarModel()
	m.SetTemporaryMessage("first", time.Second)
	m.SetTemporaryMessage("second", time.Second)

	if m.ClearIfSeqMatch(1) {
		t.Error("stale clear should be ignored")
	}
	if m.Message() != "second" {
		t.Errorf("message = %q, want second", m.Message())
	}
	if !m.ClearIfSeqMatch(2) {
		t.Error("current clear should apply")
	}
	if m.Message() != "" {
		t.Errorf("message = %q after clear", m.Message())
	}
}

func TestStatusBar_Busy(t *testing.T) {
	m := NewStatusBarModel()
	m.SetWidth(80)
	if m.Busy() {
		t.Fatal("new status bar should be idle")
	}
	if cmd := m.StartBusy("Posting comment…"); cmd == nil {
		t.Error("StartBusy should start the spinner")
	}
	if !m.Busy() || !strings.Contains(m.View(), "Posting comment…") {
		t.Errorf("busy view = %q", m.View())
	}
	m.StopBusy()
	if m.Busy() {
		t.Error("StopBusy should clear busy")
	}
}

func TestStatusBar_ContextInfo(t *testing.T) {
	m := NewStatusBarModel()
	m.SetWidth(100)
	m.SetProgress("Diff 2 of 5", 3, 4)
	v := m.View()
	for _, want := range []string{"Diff 2 of 5", "3 to review", "4 approved earlier"} {
		if !strings.Contains(v, want) {
			t.Errorf("view %q missing %q", v, want)
		}
	}

	m.SetProgress("No diffs", 0, 2)
	v = m.View()
	if strings.Contains(v, "to review") {
		t.Errorf("empty session should not show a review count: %q", v)
	}
}
