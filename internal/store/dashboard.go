package store

import (
	"context"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/pkg/errors"
)

// Stats summarises the loaded reports.
func (s *Store) Stats() model.ReportStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.ReportStats{
		Total:       len(s.reports),
		ByIssueType: make(map[string]int),
	}
	for _, r := range s.reports {
		switch r.Status {
		case model.ReportStatusOpen:
			stats.Open++
		case model.ReportStatusResolved:
			stats.Resolved++
		}
		stats.ByIssueType[r.IssueType]++
		stats.UpvoteTotal += r.UpvoteCount
		stats.DownvoteTotal += r.DownvoteCount
	}
	return stats
}

// FilterReports queries reports by location. The result is read-only and
// leaves the loaded list untouched.
func (s *Store) FilterReports(ctx context.Context, location string) ([]ReportView, error) {
	if s.Closed() {
		return nil, ErrClosed
	}
	filter := model.ReportFilter{Location: location}
	if err := util.ValidateStruct(filter); err != nil {
		return nil, errors.Wrap(err, "invalid filter")
	}

	reports, err := s.gw.FilterReports(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, s.viewLocked(r))
	}
	return views, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.ManagedUser, error) {
	if s.Closed() {
		return nil, ErrClosed
	}
	return s.gw.ListUsers(ctx)
}

func (s *Store) AssignTask(ctx context.Context, reportID, assignee string) error {
	if s.Closed() {
		return ErrClosed
	}
	req := model.AssignTaskRequest{ReportID: reportID, AssignedTo: assignee}
	if err := util.ValidateStruct(req); err != nil {
		return errors.Wrap(err, "invalid assignment")
	}
	return s.gw.AssignTask(ctx, req)
}
