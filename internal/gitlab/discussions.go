package gitlab

import (
	"context"

	gl "gitlab.com/gitlab-org/api/client-go"
)

// ListDiffNotes returns the non-system notes anchored to a new-side line.
func (c *Client) ListDiffNotes(ctx context.Context, project string, iid int) ([]DiffNote, error) {
	opt := &gl.ListMergeRequestDiscussionsOptions{Page: 1, PerPage: perPage}

	var out []DiffNote
	for {
		var page []*gl.Discussion
		var next int
		err := c.call(ctx, "list discussions", func(api *gl.Client) (*gl.Response, error) {
			var (
				resp *gl.Response
				err  error
			)
			page, resp, err = api.Discussions.ListMergeRequestDiscussions(project, iid, opt, gl.WithContext(ctx))
			if resp != nil {
				next = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, d := range page {
			for _, n := range d.Notes {
				if n == nil || n.System || n.Position == nil || n.Position.NewLine <= 0 {
					continue
				}
				out = append(out, DiffNote{
					Path:   n.Position.NewPath,
					Line:   n.Position.NewLine,
					Author: n.Author.Username,
					Body:   n.Body,
				})
			}
		}
		if next == 0 {
			break
		}
		opt.Page = next
	}
	return out, nil
}

// PostComment opens a discussion on one line of the merge request diff.
// The body is sent unchanged.
func (c *Client) PostComment(ctx context.Context, mr *MergeRequest, nc NewComment) error {
	oldPath := nc.OldPath
	if oldPath == "" {
		oldPath = nc.Path
	}
	pos := &gl.PositionOptions{
		BaseSHA:      gl.Ptr(mr.BaseSHA),
		StartSHA:     gl.Ptr(mr.StartSHA),
		HeadSHA:      gl.Ptr(mr.HeadSHA),
		PositionType: gl.Ptr("text"),
		NewPath:      gl.Ptr(nc.Path),
		OldPath:      gl.Ptr(oldPath),
		NewLine:      gl.Ptr(nc.NewLine),
	}
	if nc.OldLine > 0 {
		pos.OldLine = gl.Ptr(nc.OldLine)
	}

	opt := &gl.CreateMergeRequestDiscussionOptions{
		Body:     gl.Ptr(nc.Body),
		Position: pos,
	}
	err := c.call(ctx, "post comment", func(api *gl.Client) (*gl.Response, error) {
		_, resp, err := api.Discussions.CreateMergeRequestDiscussion(mr.Project, mr.IID, opt, gl.WithContext(ctx))
		return resp, err
	})
	if err != nil {
		return err
	}
	c.logger.Info().Str("path", nc.Path).Int("line", nc.NewLine).Msg("comment posted")
	return nil
}
