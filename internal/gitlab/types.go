package gitlab

// MergeRequest is the loaded merge request plus the diff refs needed to
// position comments.
type MergeRequest struct {
	Project      string // "group/repo"
	IID          int
	Title        string
	WebURL       string
	Author       string
	SourceBranch string
	TargetBranch string
	State        string

	BaseSHA  string
	StartSHA string
	HeadSHA  string
}

// FileDiff is one file's change within a merge request.
type FileDiff struct {
	OldPath     string
	NewPath     string
	Diff        string // unified diff body, hunks only
	NewFile     bool
	RenamedFile bool
	DeletedFile bool
}

// DiffNote is an existing comment anchored to a new-side line.
type DiffNote struct {
	Path   string
	Line   int
	Author string
	Body   string
}

// NewComment is a line comment to post. OldLine is set for unchanged
// lines, which GitLab anchors on both sides.
type NewComment struct {
	Path    string
	OldPath string
	NewLine int
	OldLine int
	Body    string
}
