// Package demo serves a fictional merge request from memory so the review
// flow can be tried without a GitLab instance or credentials. Comments and
// approvals are accepted and kept for the lifetime of the process.
package demo

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shhac/mrtea/internal/gitlab"
)

// Service implements review.Fetcher and review.Remote with in-memory data.
type Service struct {
	logger zerolog.Logger

	mu       sync.Mutex
	mr       gitlab.MergeRequest
	files    []gitlab.FileDiff
	notes    []gitlab.DiffNote
	approved bool
}

// NewService creates a Service populated with the demo merge request.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		logger: logger,
		mr:     mergeRequest,
		files:  append([]gitlab.FileDiff(nil), fileDiffs...),
		notes:  append([]gitlab.DiffNote(nil), diffNotes...),
	}
}

func (s *Service) lookup(project string, iid int) error {
	if project != s.mr.Project || iid != s.mr.IID {
		return fmt.Errorf("demo has no merge request %s!%d (try %s!%d)", project, iid, Project, IID)
	}
	return nil
}

// -- Read operations --

func (s *Service) GetMergeRequest(_ context.Context, project string, iid int) (*gitlab.MergeRequest, error) {
	if err := s.lookup(project, iid); err != nil {
		return nil, err
	}
	mr := s.mr
	return &mr, nil
}

func (s *Service) ListDiffs(_ context.Context, project string, iid int) ([]gitlab.FileDiff, error) {
	if err := s.lookup(project, iid); err != nil {
		return nil, err
	}
	return append([]gitlab.FileDiff(nil), s.files...), nil
}

func (s *Service) ListDiffNotes(_ context.Context, project string, iid int) ([]gitlab.DiffNote, error) {
	if err := s.lookup(project, iid); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gitlab.DiffNote(nil), s.notes...), nil
}

// -- Write operations (kept in memory) --

func (s *Service) PostComment(_ context.Context, mr *gitlab.MergeRequest, c gitlab.NewComment) error {
	if err := s.lookup(mr.Project, mr.IID); err != nil {
		return err
	}
	s.mu.Lock()
	s.notes = append(s.notes, gitlab.DiffNote{Path: c.Path, Line: c.NewLine, Author: "you", Body: c.Body})
	s.mu.Unlock()
	s.logger.Info().Str("path", c.Path).Int("line", c.NewLine).Msg("demo comment stored")
	return nil
}

func (s *Service) ApproveMergeRequest(_ context.Context, mr *gitlab.MergeRequest) error {
	if err := s.lookup(mr.Project, mr.IID); err != nil {
		return err
	}
	s.mu.Lock()
	s.approved = true
	s.mu.Unlock()
	s.logger.Info().Int("iid", mr.IID).Msg("demo merge request approved")
	return nil
}

// Approved reports whether ApproveMergeRequest has been called.
func (s *Service) Approved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.approved
}
