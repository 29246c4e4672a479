// Package store holds the in-memory view of one UI session: the cached
// report list, the user's per-report vote records and the report draft. It
// is the only component that writes vote state, and it reconciles
// optimistic changes with what the backend acknowledges.
package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/internal/vote"
	"github.com/pkg/errors"
)

var (
	ErrClosed         = errors.New("view state is closed")
	ErrUnknownReport  = errors.New("report not found")
	ErrVoteInFlight   = errors.New("a vote on this report is already in flight")
	ErrTooManyImages  = errors.Errorf("a report can carry at most %d images", model.MaxReportImages)
	ErrSubmitInFlight = errors.New("a report submission is already in flight")
	ErrImageIndex     = errors.New("no image at that position")
)

// Gateway is the backend as seen by the store.
type Gateway interface {
	FetchReports(ctx context.Context) ([]model.Report, error)
	FetchCurrentUser(ctx context.Context) (*model.UserSession, error)
	SubmitReport(ctx context.Context, draft model.ReportDraft) (string, error)
	SendVoteToggle(ctx context.Context, reportID string, kind model.VoteKind, direction model.Direction) error
	FilterReports(ctx context.Context, filter model.ReportFilter) ([]model.Report, error)
	ListUsers(ctx context.Context) ([]model.ManagedUser, error)
	AssignTask(ctx context.Context, assignment model.AssignTaskRequest) error
	ImageURL(path string) string
}

// Notifier receives state changes for push delivery to the UI. Notify must
// not block.
type Notifier interface {
	Notify(evt Event)
}

// Event types pushed to the UI.
const (
	EventLoaded          = "view_loaded"
	EventVoteApplied     = "vote_applied"
	EventVoteCommitted   = "vote_committed"
	EventVoteRolledBack  = "vote_rolled_back"
	EventReportSubmitted = "report_submitted"
)

type Event struct {
	Type     string      `json:"type"`
	ReportID string      `json:"report_id,omitempty"`
	Report   *ReportView `json:"report,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// ReportView is a report as displayed: the cached report plus the user's
// vote on it.
type ReportView struct {
	model.Report
	Vote      model.VoteRecord `json:"vote"`
	ImageURLs []string         `json:"image_urls"`
	Pending   bool             `json:"pending"`
}

// Snapshot is an immutable copy of the view state.
type Snapshot struct {
	Reports       []ReportView       `json:"reports"`
	User          *model.UserSession `json:"user"`
	Loaded        bool               `json:"loaded"`
	ReportsFailed bool               `json:"reports_failed"`
	ReportsError  string             `json:"reports_error,omitempty"`
	UserFailed    bool               `json:"user_failed"`
	UserError     string             `json:"user_error,omitempty"`
	LoadedAt      time.Time          `json:"loaded_at"`
}

// pendingVote is a vote mutation whose backend calls have not completed.
// upApplied and downApplied are the deltas actually applied to the cached
// counters, which is what a rollback inverts. acked counts the calls the
// backend has acknowledged; baked is how many of them the cached counters
// already held when they were last replaced by a load.
type pendingVote struct {
	transition  vote.Transition
	prev        model.VoteRecord
	upApplied   int
	downApplied int
	acked       int
	baked       int
}

type Store struct {
	gw       Gateway
	notifier Notifier

	mu       sync.Mutex
	closed   bool
	reports  []model.Report
	index    map[string]int
	votes    map[string]model.VoteRecord
	inFlight map[string]*pendingVote

	user       *model.UserSession
	loaded     bool
	reportsErr error
	userErr    error
	loadedAt   time.Time
	loadSeq    uint64
	appliedSeq uint64

	draft        model.ReportDraft
	draftVersion uint64
	submitting   bool
}

// New creates an empty store. notifier may be nil.
func New(gw Gateway, notifier Notifier) *Store {
	return &Store{
		gw:       gw,
		notifier: notifier,
		index:    make(map[string]int),
		votes:    make(map[string]model.VoteRecord),
		inFlight: make(map[string]*pendingVote),
	}
}

// Close discards the session state. Responses that arrive afterwards are
// dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.reports = nil
	s.index = make(map[string]int)
	s.votes = make(map[string]model.VoteRecord)
	s.draft = model.ReportDraft{}
	if n := len(s.inFlight); n > 0 {
		log.Printf("[store]: closed with %d vote(s) in flight", n)
	}
}

func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Loaded reports whether a load has completed at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns a copy of the current view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Reports:  make([]ReportView, 0, len(s.reports)),
		Loaded:   s.loaded,
		LoadedAt: s.loadedAt,
	}
	for i := range s.reports {
		snap.Reports = append(snap.Reports, s.viewLocked(s.reports[i]))
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.reportsErr != nil {
		snap.ReportsFailed = true
		snap.ReportsError = s.reportsErr.Error()
	}
	if s.userErr != nil {
		snap.UserFailed = true
		snap.UserError = s.userErr.Error()
	}
	return snap
}

// Report returns the view of one report.
func (s *Store) Report(reportID string) (ReportView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[reportID]
	if !ok {
		return ReportView{}, ErrUnknownReport
	}
	return s.viewLocked(s.reports[i]), nil
}

func (s *Store) viewLocked(r model.Report) ReportView {
	v := ReportView{
		Report:    r.Clone(),
		Vote:      s.votes[r.ID],
		ImageURLs: make([]string, 0, len(r.Images)),
	}
	_, v.Pending = s.inFlight[r.ID]
	for _, p := range r.Images {
		if u := s.gw.ImageURL(p); u != "" {
			v.ImageURLs = append(v.ImageURLs, u)
		}
	}
	return v
}

func (s *Store) notify(events ...Event) {
	if s.notifier == nil {
		return
	}
	for _, evt := range events {
		s.notifier.Notify(evt)
	}
}
