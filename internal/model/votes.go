package model

// VoteKind is the thumb the user clicked.
type VoteKind string

const (
	VoteUp   VoteKind = "up"
	VoteDown VoteKind = "down"
)

// Action is the backend name of the vote kind.
func (k VoteKind) Action() string {
	if k == VoteUp {
		return "upcall"
	}
	return "downcall"
}

func (k VoteKind) Valid() bool {
	return k == VoteUp || k == VoteDown
}

// Direction tells the backend whether to add or retract a vote.
type Direction string

const (
	Increment Direction = "increment"
	Decrement Direction = "decrement"
)

// VoteRecord is the current user's vote on one report. Upvoted and Downvoted
// are never both true.
type VoteRecord struct {
	Upvoted   bool `json:"upvoted"`
	Downvoted bool `json:"downvoted"`
}

// VoteToggle is the form body of update_calls.php.
type VoteToggle struct {
	ReportID string    `url:"reportId"`
	Action   string    `url:"action"`
	Toggle   Direction `url:"toggle"`
}

type VoteIntentRequest struct {
	Kind VoteKind `json:"kind" validate:"required,oneof=up down"`
}
