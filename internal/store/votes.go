package store

import (
	"context"
	"log"
	"time"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/internal/vote"
	"github.com/pkg/errors"
)

// CompensationTimeout bounds the calls undoing a half-applied compound
// transition.
const CompensationTimeout = 10 * time.Second

// VoteOutcome describes how a vote intent resolved.
type VoteOutcome struct {
	ReportID  string     `json:"report_id"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Committed bool       `json:"committed"`
	Report    ReportView `json:"report"`
}

// ApplyVoteIntent is the only write path for vote state. It applies the
// transition optimistically, persists it and then commits or rolls back.
// While a report has a mutation in flight further intents for it are
// rejected with ErrVoteInFlight without touching state or the backend.
//
// A transition between the two thumbs takes two backend calls. If the
// second fails the first is compensated on the backend and both counter
// changes are rolled back locally together.
func (s *Store) ApplyVoteIntent(ctx context.Context, reportID string, kind model.VoteKind) (VoteOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return VoteOutcome{}, ErrClosed
	}
	i, ok := s.index[reportID]
	if !ok {
		s.mu.Unlock()
		return VoteOutcome{}, ErrUnknownReport
	}
	if _, busy := s.inFlight[reportID]; busy {
		s.mu.Unlock()
		log.Printf("[store]: rejecting %s vote on report %s, previous vote still in flight", kind, reportID)
		return VoteOutcome{}, ErrVoteInFlight
	}

	prev := s.votes[reportID]
	t, err := vote.Next(vote.StateOf(prev), kind)
	if err != nil {
		s.mu.Unlock()
		return VoteOutcome{}, err
	}

	p := &pendingVote{transition: t, prev: prev}
	p.upApplied, p.downApplied = applyDelta(&s.reports[i], t.UpDelta, t.DownDelta)
	s.setVoteLocked(reportID, t.To.Record())
	s.inFlight[reportID] = p
	optimistic := s.viewLocked(s.reports[i])
	s.mu.Unlock()

	s.notify(Event{Type: EventVoteApplied, ReportID: reportID, Report: &optimistic})

	// Dispatched calls run to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	done := 0
	var sendErr error
	for _, call := range t.Calls {
		if sendErr = s.gw.SendVoteToggle(ctx, reportID, call.Kind, call.Direction); sendErr != nil {
			break
		}
		done++
		s.mu.Lock()
		p.acked = done
		s.mu.Unlock()
	}
	compensated := false
	if sendErr != nil && done > 0 {
		compensated = s.compensate(ctx, reportID, t.Compensation(done))
	}

	return s.reconcile(reportID, t, sendErr, compensated)
}

// reconcile settles an in-flight mutation once its calls have finished.
// compensated reports whether acknowledged calls were undone on the backend.
func (s *Store) reconcile(reportID string, t vote.Transition, sendErr error, compensated bool) (VoteOutcome, error) {
	s.mu.Lock()
	p := s.inFlight[reportID]
	delete(s.inFlight, reportID)

	if s.closed || p == nil {
		s.mu.Unlock()
		log.Printf("[store]: dropping late vote response for report %s", reportID)
		return VoteOutcome{}, ErrClosed
	}

	outcome := VoteOutcome{ReportID: reportID, From: t.From.String(), To: t.To.String()}

	if sendErr != nil {
		s.setVoteLocked(reportID, p.prev)
		if i, ok := s.index[reportID]; ok {
			r := &s.reports[i]
			r.UpvoteCount -= p.upApplied
			r.DownvoteCount -= p.downApplied
			if compensated && p.baked > 0 {
				// A load took these calls in with the server value and the
				// backend has since undone them.
				up, down := vote.Deltas(t.Calls[:p.baked])
				applyDelta(r, -up, -down)
			}
		}
		outcome.To = t.From.String()
		view, _ := s.viewIfPresentLocked(reportID)
		outcome.Report = view
		s.mu.Unlock()

		log.Printf("⚠️ [store]: vote %s -> %s on report %s rolled back: %v", t.From, t.To, reportID, sendErr)
		s.notify(Event{Type: EventVoteRolledBack, ReportID: reportID, Report: &view, Message: sendErr.Error()})
		return outcome, errors.Wrap(sendErr, "vote rolled back")
	}

	outcome.Committed = true
	view, _ := s.viewIfPresentLocked(reportID)
	outcome.Report = view
	s.mu.Unlock()

	s.notify(Event{Type: EventVoteCommitted, ReportID: reportID, Report: &view})
	return outcome, nil
}

// compensate undoes the calls of a half-applied compound transition on the
// backend and reports whether all of them went through.
func (s *Store) compensate(ctx context.Context, reportID string, calls []vote.Call) bool {
	cctx, cancel := context.WithTimeout(ctx, CompensationTimeout)
	defer cancel()

	for _, call := range calls {
		if err := s.gw.SendVoteToggle(cctx, reportID, call.Kind, call.Direction); err != nil {
			log.Printf("⚠️ [store]: compensating %s on report %s failed, backend counters may be off: %v", call, reportID, err)
			return false
		}
		log.Printf("[store]: compensated %s on report %s", call, reportID)
	}
	return true
}

// VoteState returns the user's vote on a report.
func (s *Store) VoteState(reportID string) model.VoteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes[reportID]
}

func (s *Store) setVoteLocked(reportID string, rec model.VoteRecord) {
	if !rec.Upvoted && !rec.Downvoted {
		delete(s.votes, reportID)
		return
	}
	s.votes[reportID] = rec
}

func (s *Store) viewIfPresentLocked(reportID string) (ReportView, bool) {
	i, ok := s.index[reportID]
	if !ok {
		return ReportView{Report: model.Report{ID: reportID}, Vote: s.votes[reportID]}, false
	}
	return s.viewLocked(s.reports[i]), true
}
