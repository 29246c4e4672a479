package backend

import (
	"context"
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
)

// SendVoteToggle persists one half of a vote change. The backend only keeps
// aggregate counters, so each call moves exactly one of them.
func (c *Client) SendVoteToggle(ctx context.Context, reportID string, kind model.VoteKind, direction model.Direction) error {
	const op = "send vote toggle"

	form := model.VoteToggle{
		ReportID: reportID,
		Action:   kind.Action(),
		Toggle:   direction,
	}
	req, err := c.newForm(ctx, pathUpdateCalls, form)
	if err != nil {
		return protocolError(op, "build request", err)
	}

	code, body, err := c.do(op, req)
	if err != nil {
		return err
	}

	env, err := decodeStatus(body)
	if err != nil {
		if code == http.StatusConflict {
			return conflictError(op, "vote toggle rejected")
		}
		if !success(code) {
			return unexpectedStatus(op, code)
		}
		return protocolError(op, "malformed status envelope", err)
	}
	if !success(code) && code != http.StatusConflict {
		return unexpectedStatus(op, code)
	}
	if !env.ok() || code == http.StatusConflict {
		msg := env.Message
		if msg == "" {
			msg = "vote toggle rejected"
		}
		return conflictError(op, msg)
	}
	return nil
}
