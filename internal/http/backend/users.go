package backend

import (
	"context"
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
)

// FetchCurrentUser returns the logged-in user's profile, or nil when the
// session is not authenticated.
func (c *Client) FetchCurrentUser(ctx context.Context) (*model.UserSession, error) {
	const op = "fetch current user"

	req, err := c.newGet(ctx, pathUserDetails, nil)
	if err != nil {
		return nil, protocolError(op, "build request", err)
	}

	code, body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return nil, nil
	}
	if !success(code) {
		return nil, unexpectedStatus(op, code)
	}

	user, err := decodeUser(body)
	if err != nil {
		return nil, protocolError(op, "malformed user envelope", err)
	}
	return user, nil
}

// ListUsers returns the users managed from the agency dashboard.
func (c *Client) ListUsers(ctx context.Context) ([]model.ManagedUser, error) {
	const op = "list users"

	req, err := c.newGet(ctx, pathUsers, nil)
	if err != nil {
		return nil, protocolError(op, "build request", err)
	}

	code, body, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	if !success(code) {
		return nil, unexpectedStatus(op, code)
	}

	users, err := decodeUsers(body)
	if err != nil {
		return nil, protocolError(op, "malformed users envelope", err)
	}
	return users, nil
}
