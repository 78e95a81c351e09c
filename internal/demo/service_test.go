package demo

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shhac/mrtea/internal/gitlab"
	"github.com/shhac/mrtea/internal/review"
)

func TestLoad_AllDemoDiffsParse(t *testing.T) {
	s := NewService(zerolog.Nop())
	loaded, err := review.Load(context.Background(), s, Project, IID, zerolog.Nop())
	require.NoError(t, err)

	assert.Empty(t, loaded.Skipped)
	assert.Len(t, loaded.Diffs, len(fileDiffs))
	assert.Len(t, loaded.Notes, len(diffNotes))
	assert.Equal(t, "Add rate limiting middleware", loaded.MergeRequest.Title)

	var sawNew, sawDeleted, sawRenamed bool
	for _, d := range loaded.Diffs {
		sawNew = sawNew || d.NewFile
		sawDeleted = sawDeleted || d.DeletedFile
		sawRenamed = sawRenamed || d.RenamedFile
	}
	assert.True(t, sawNew && sawDeleted && sawRenamed, "demo should cover new, deleted and renamed files")
}

func TestNotesAnchorOnDiffLines(t *testing.T) {
	s := NewService(zerolog.Nop())
	loaded, err := review.Load(context.Background(), s, Project, IID, zerolog.Nop())
	require.NoError(t, err)

	for _, n := range diffNotes {
		found := false
		for _, d := range loaded.Diffs {
			if d.Path() != n.Path {
				continue
			}
			_, found = d.FindNewLine(n.Line)
		}
		assert.True(t, found, "note %s:%d should point at a new-side line", n.Path, n.Line)
	}
}

func TestUnknownMergeRequest(t *testing.T) {
	s := NewService(zerolog.Nop())
	_, err := s.GetMergeRequest(context.Background(), "acme/other", IID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acme/gateway!101")

	_, err = s.ListDiffs(context.Background(), Project, 7)
	assert.Error(t, err)
}

func TestWritesAreKeptInMemory(t *testing.T) {
	s := NewService(zerolog.Nop())
	ctx := context.Background()
	mr, err := s.GetMergeRequest(ctx, Project, IID)
	require.NoError(t, err)

	require.NoError(t, s.PostComment(ctx, mr, gitlab.NewComment{Path: "cmd/gateway/main.go", NewLine: 16, Body: "nice"}))
	notes, err := s.ListDiffNotes(ctx, Project, IID)
	require.NoError(t, err)
	assert.Len(t, notes, len(diffNotes)+1)
	assert.Equal(t, "you", notes[len(notes)-1].Author)

	assert.False(t, s.Approved())
	require.NoError(t, s.ApproveMergeRequest(ctx, mr))
	assert.True(t, s.Approved())

	// Package data is never mutated.
	assert.Len(t, NewService(zerolog.Nop()).notes, len(diffNotes))
}
