package store

import (
	"context"
	"log"
	"time"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/internal/vote"
	"golang.org/x/sync/errgroup"
)

// Load fetches the report list and the current user in parallel. Each half
// succeeds or fails on its own: a failed half is flagged and keeps whatever
// it held before, the other half is applied regardless.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	var (
		reports    []model.Report
		user       *model.UserSession
		reportsErr error
		userErr    error
	)

	// Neither goroutine returns an error so one failure never cancels the
	// other request.
	var g errgroup.Group
	g.Go(func() error {
		reports, reportsErr = s.gw.FetchReports(ctx)
		return nil
	})
	g.Go(func() error {
		user, userErr = s.gw.FetchCurrentUser(ctx)
		return nil
	})
	_ = g.Wait()

	if reportsErr != nil {
		log.Printf("⚠️ [store]: loading reports failed: %v", reportsErr)
	}
	if userErr != nil {
		log.Printf("⚠️ [store]: loading user details failed: %v", userErr)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Println("[store]: dropping load result for closed view")
		return Snapshot{}, ErrClosed
	}
	if seq < s.appliedSeq {
		// A newer load already landed.
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.appliedSeq = seq

	s.reportsErr = reportsErr
	if reportsErr == nil {
		s.replaceReportsLocked(reports)
	}
	s.userErr = userErr
	if userErr == nil {
		s.user = user
	}
	s.loaded = true
	s.loadedAt = time.Now()

	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Event{Type: EventLoaded})
	return snap, nil
}

// replaceReportsLocked installs a fresh server list and re-applies the
// deltas of votes still in flight, so displayed counters stay equal to the
// server value plus unconfirmed local changes.
func (s *Store) replaceReportsLocked(reports []model.Report) {
	s.reports = make([]model.Report, 0, len(reports))
	s.index = make(map[string]int, len(reports))
	for _, r := range reports {
		if _, dup := s.index[r.ID]; dup {
			log.Printf("[store]: duplicate report id %s in list, keeping the first", r.ID)
			continue
		}
		s.index[r.ID] = len(s.reports)
		s.reports = append(s.reports, r.Clone())
	}

	// Acknowledged calls are part of the fresh server value; only the
	// remaining ones are re-applied.
	for id, p := range s.inFlight {
		p.baked = p.acked
		i, ok := s.index[id]
		if !ok {
			p.upApplied, p.downApplied = 0, 0
			continue
		}
		up, down := vote.Deltas(p.transition.Calls[p.acked:])
		p.upApplied, p.downApplied = applyDelta(&s.reports[i], up, down)
	}
}

// applyDelta moves the counters of r without letting them go negative and
// returns the deltas actually applied.
func applyDelta(r *model.Report, up, down int) (int, int) {
	up = clampDelta(r.UpvoteCount, up)
	down = clampDelta(r.DownvoteCount, down)
	r.UpvoteCount += up
	r.DownvoteCount += down
	return up, down
}

func clampDelta(value, delta int) int {
	if value+delta < 0 {
		return -value
	}
	return delta
}
