package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shhac/mrtea/internal/diff"
	"github.com/shhac/mrtea/internal/gitlab"
)

// Loaded is everything fetched at startup.
type Loaded struct {
	MergeRequest *gitlab.MergeRequest
	Diffs        []*diff.Diff
	Notes        []gitlab.DiffNote
	// Skipped lists paths whose diff text could not be parsed.
	Skipped []string
}

// Load fetches the merge request, its diffs and existing line notes. An
// authorization failure is retried once, after the credential has been
// re-acquired. Malformed diffs are skipped with a warning. Notes are
// best-effort.
func Load(ctx context.Context, f Fetcher, project string, iid int, logger zerolog.Logger) (*Loaded, error) {
	mr, err := retryAuth(ctx, logger, func() (*gitlab.MergeRequest, error) {
		return f.GetMergeRequest(ctx, project, iid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load merge request !%d: %w", iid, err)
	}

	files, err := retryAuth(ctx, logger, func() ([]gitlab.FileDiff, error) {
		return f.ListDiffs(ctx, project, iid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch diffs for !%d: %w", iid, err)
	}

	out := &Loaded{MergeRequest: mr}
	for _, fd := range files {
		d, err := FromFileDiff(fd)
		if err != nil {
			logger.Warn().Err(err).Str("path", fd.NewPath).Msg("skipping malformed diff")
			out.Skipped = append(out.Skipped, fd.NewPath)
			continue
		}
		out.Diffs = append(out.Diffs, d)
	}

	notes, err := f.ListDiffNotes(ctx, project, iid)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch existing comments, markers disabled")
	}
	out.Notes = notes
	return out, nil
}

// FromFileDiff parses a fetched file diff.
func FromFileDiff(fd gitlab.FileDiff) (*diff.Diff, error) {
	d, err := diff.New(fd.OldPath, fd.NewPath, fd.Diff)
	if err != nil {
		return nil, err
	}
	d.NewFile = fd.NewFile
	d.DeletedFile = fd.DeletedFile
	d.RenamedFile = fd.RenamedFile
	return d, nil
}

func retryAuth[T any](ctx context.Context, logger zerolog.Logger, fn func() (T, error)) (T, error) {
	v, err := fn()
	var authErr *gitlab.AuthorizationError
	if err == nil || !errors.As(err, &authErr) || ctx.Err() != nil {
		return v, err
	}
	logger.Info().Err(err).Msg("authorization rejected at startup, retrying once")
	return fn()
}
