package review

import (
	"context"

	"github.com/shhac/mrtea/internal/approval"
	"github.com/shhac/mrtea/internal/gitlab"
)

// Cache is the approval store consulted at load time and written by `y`.
type Cache interface {
	IsApproved(approval.Digest) bool
	RecordApproval(approval.Digest) error
}

// Remote performs the side effects that leave the machine.
type Remote interface {
	PostComment(ctx context.Context, mr *gitlab.MergeRequest, c gitlab.NewComment) error
	ApproveMergeRequest(ctx context.Context, mr *gitlab.MergeRequest) error
}

// Fetcher loads a merge request at startup.
type Fetcher interface {
	GetMergeRequest(ctx context.Context, project string, iid int) (*gitlab.MergeRequest, error)
	ListDiffs(ctx context.Context, project string, iid int) ([]gitlab.FileDiff, error)
	ListDiffNotes(ctx context.Context, project string, iid int) ([]gitlab.DiffNote, error)
}
