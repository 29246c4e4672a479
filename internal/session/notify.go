package session

import (
	"github.com/bwise1/civic_reports/internal/store"
	"github.com/bwise1/civic_reports/util/websockets"
)

// pushNotifier forwards store events to the session's websocket
// connections.
type pushNotifier struct {
	sessionID string
	publisher Publisher
}

func (n *pushNotifier) Notify(evt store.Event) {
	n.publisher.Publish(n.sessionID, messageType(evt.Type), evt)
}

func messageType(eventType string) string {
	switch eventType {
	case store.EventVoteApplied, store.EventVoteCommitted, store.EventVoteRolledBack:
		return websockets.MsgTypeVoteUpdate
	case store.EventReportSubmitted:
		return websockets.MsgTypeReportUpdate
	default:
		return websockets.MsgTypeViewUpdate
	}
}
