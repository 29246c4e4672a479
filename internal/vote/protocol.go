// Package vote implements the per-user, per-report thumbs-up/thumbs-down
// state machine. It is pure: it decides the next state, the counter deltas
// and the backend calls, and leaves applying them to the caller.
package vote

import (
	"fmt"

	"github.com/bwise1/civic_reports/internal/model"
)

// State of one user's vote on one report.
type State int

const (
	Neutral State = iota
	Upvoted
	Downvoted
)

func (s State) String() string {
	switch s {
	case Upvoted:
		return "upvoted"
	case Downvoted:
		return "downvoted"
	default:
		return "neutral"
	}
}

// StateOf maps a vote record to its state. A corrupt record with both flags
// set is treated as Neutral.
func StateOf(r model.VoteRecord) State {
	switch {
	case r.Upvoted && !r.Downvoted:
		return Upvoted
	case r.Downvoted && !r.Upvoted:
		return Downvoted
	default:
		return Neutral
	}
}

// Record is the vote record representing s.
func (s State) Record() model.VoteRecord {
	return model.VoteRecord{Upvoted: s == Upvoted, Downvoted: s == Downvoted}
}

// Call is one update_calls request.
type Call struct {
	Kind      model.VoteKind
	Direction model.Direction
}

// Inverse is the call that undoes c on the backend.
func (c Call) Inverse() Call {
	if c.Direction == model.Increment {
		return Call{Kind: c.Kind, Direction: model.Decrement}
	}
	return Call{Kind: c.Kind, Direction: model.Increment}
}

// Delta is the counter change the backend makes for c.
func (c Call) Delta() (up, down int) {
	step := 1
	if c.Direction == model.Decrement {
		step = -1
	}
	if c.Kind == model.VoteUp {
		return step, 0
	}
	return 0, step
}

// Deltas sums the counter changes of calls.
func Deltas(calls []Call) (up, down int) {
	for _, c := range calls {
		u, d := c.Delta()
		up += u
		down += d
	}
	return up, down
}

func (c Call) String() string {
	return fmt.Sprintf("%s/%s", c.Kind.Action(), c.Direction)
}

// Transition is the outcome of a click: where the machine goes, how the
// counters move and which calls persist it. Calls run in order.
type Transition struct {
	From      State
	To        State
	UpDelta   int
	DownDelta int
	Calls     []Call
}

// Compound reports whether the transition moves a vote from one thumb to
// the other.
func (t Transition) Compound() bool {
	return len(t.Calls) > 1
}

// Compensation returns the calls undoing the first done calls of t, most
// recent first.
func (t Transition) Compensation(done int) []Call {
	if done > len(t.Calls) {
		done = len(t.Calls)
	}
	out := make([]Call, 0, done)
	for i := done - 1; i >= 0; i-- {
		out = append(out, t.Calls[i].Inverse())
	}
	return out
}

var (
	upInc   = Call{Kind: model.VoteUp, Direction: model.Increment}
	upDec   = Call{Kind: model.VoteUp, Direction: model.Decrement}
	downInc = Call{Kind: model.VoteDown, Direction: model.Increment}
	downDec = Call{Kind: model.VoteDown, Direction: model.Decrement}
)

// Next computes the transition for a click of kind from state.
func Next(from State, click model.VoteKind) (Transition, error) {
	if !click.Valid() {
		return Transition{}, fmt.Errorf("unknown vote kind %q", click)
	}

	t := Transition{From: from}
	switch from {
	case Neutral:
		if click == model.VoteUp {
			t.To, t.UpDelta, t.Calls = Upvoted, 1, []Call{upInc}
		} else {
			t.To, t.DownDelta, t.Calls = Downvoted, 1, []Call{downInc}
		}
	case Upvoted:
		if click == model.VoteUp {
			t.To, t.UpDelta, t.Calls = Neutral, -1, []Call{upDec}
		} else {
			t.To, t.UpDelta, t.DownDelta = Downvoted, -1, 1
			t.Calls = []Call{upDec, downInc}
		}
	case Downvoted:
		if click == model.VoteDown {
			t.To, t.DownDelta, t.Calls = Neutral, -1, []Call{downDec}
		} else {
			t.To, t.UpDelta, t.DownDelta = Upvoted, 1, -1
			t.Calls = []Call{downDec, upInc}
		}
	default:
		return Transition{}, fmt.Errorf("unknown vote state %d", from)
	}
	return t, nil
}
