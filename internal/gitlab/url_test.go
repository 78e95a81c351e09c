package gitlab

import "testing"

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		raw         string
		wantBase    string
		wantProject string
		wantErr     bool
	}{
		{"https://gitlab.com/group/repo", "https://gitlab.com", "group/repo", false},
		{"https://gitlab.com/group/repo.git", "https://gitlab.com", "group/repo", false},
		{"https://gitlab.com/group/repo/", "https://gitlab.com", "group/repo", false},
		{"https://gitlab.com/group/sub/repo/-/merge_requests/7", "https://gitlab.com", "group/sub/repo", false},
		{"http://gitlab.internal:8080/team/svc", "http://gitlab.internal:8080", "team/svc", false},
		{"  https://gitlab.com/group/repo  ", "https://gitlab.com", "group/repo", false},
		{"https://gitlab.com/repo", "", "", true},
		{"https://gitlab.com/", "", "", true},
		{"git@gitlab.com:group/repo.git", "", "", true},
		{"ftp://gitlab.com/group/repo", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		base, project, err := ParseRepoURL(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRepoURL(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if base != tt.wantBase || project != tt.wantProject {
			t.Errorf("ParseRepoURL(%q) = (%q, %q), want (%q, %q)", tt.raw, base, project, tt.wantBase, tt.wantProject)
		}
	}
}

func TestMergeRequestIIDFromURL(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"https://gitlab.com/group/repo/-/merge_requests/42", 42, true},
		{"https://gitlab.com/group/repo/-/merge_requests/42/diffs", 42, true},
		{"https://gitlab.com/group/repo/-/merge_requests/42?tab=notes", 42, true},
		{"https://gitlab.com/group/repo", 0, false},
		{"https://gitlab.com/group/repo/-/merge_requests/new", 0, false},
	}
	for _, tt := range tests {
		got, ok := MergeRequestIIDFromURL(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MergeRequestIIDFromURL(%q) = (%d, %v), want (%d, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProjectKey(t *testing.T) {
	if got := ProjectKey("https://gitlab.com", "group/repo"); got != "gitlab.com/group/repo" {
		t.Errorf("ProjectKey = %q", got)
	}
	if got := ProjectKey("http://gitlab.internal:8080", "team/svc"); got != "gitlab.internal:8080/team/svc" {
		t.Errorf("ProjectKey = %q", got)
	}
}
