package gitlab

import (
	"context"

	gl "gitlab.com/gitlab-org/api/client-go"
)

const perPage = 100

// GetMergeRequest loads a merge request and its diff refs.
func (c *Client) GetMergeRequest(ctx context.Context, project string, iid int) (*MergeRequest, error) {
	var mr *gl.MergeRequest
	err := c.call(ctx, "get merge request", func(api *gl.Client) (*gl.Response, error) {
		var (
			resp *gl.Response
			err  error
		)
		mr, resp, err = api.MergeRequests.GetMergeRequest(project, iid, nil, gl.WithContext(ctx))
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	out := &MergeRequest{
		Project:      project,
		IID:          mr.IID,
		Title:        mr.Title,
		WebURL:       mr.WebURL,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		State:        mr.State,
		BaseSHA:      mr.DiffRefs.BaseSha,
		StartSHA:     mr.DiffRefs.StartSha,
		HeadSHA:      mr.DiffRefs.HeadSha,
	}
	if mr.Author != nil {
		out.Author = mr.Author.Username
	}
	return out, nil
}

// ListDiffs returns every file diff of the merge request, following
// pagination.
func (c *Client) ListDiffs(ctx context.Context, project string, iid int) ([]FileDiff, error) {
	opt := &gl.ListMergeRequestDiffsOptions{
		ListOptions: gl.ListOptions{Page: 1, PerPage: perPage},
	}

	var out []FileDiff
	for {
		var page []*gl.MergeRequestDiff
		var next int
		err := c.call(ctx, "list diffs", func(api *gl.Client) (*gl.Response, error) {
			var (
				resp *gl.Response
				err  error
			)
			page, resp, err = api.MergeRequests.ListMergeRequestDiffs(project, iid, opt, gl.WithContext(ctx))
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, d := range page {
			out = append(out, FileDiff{
				OldPath:     d.OldPath,
				NewPath:     d.NewPath,
				Diff:        d.Diff,
				NewFile:     d.NewFile,
				RenamedFile: d.RenamedFile,
				DeletedFile: d.DeletedFile,
			})
		}
		if next == 0 {
			break
		}
		opt.Page = next
	}

	c.logger.Debug().Str("project", project).Int("iid", iid).Int("files", len(out)).Msg("diffs fetched")
	return out, nil
}

// ApproveMergeRequest approves the merge request at the head SHA that was
// reviewed. GitLab refuses the approval if the branch moved since.
func (c *Client) ApproveMergeRequest(ctx context.Context, mr *MergeRequest) error {
	var opt *gl.ApproveMergeRequestOptions
	if mr.HeadSHA != "" {
		opt = &gl.ApproveMergeRequestOptions{SHA: gl.Ptr(mr.HeadSHA)}
	}
	return c.call(ctx, "approve merge request", func(api *gl.Client) (*gl.Response, error) {
		_, resp, err := api.MergeRequestApprovals.ApproveMergeRequest(mr.Project, mr.IID, opt, gl.WithContext(ctx))
		return resp, err
	})
}
