package backend

import (
	"context"

	"github.com/bwise1/civic_reports/internal/model"
)

// Login authenticates against the backend. The session cookie it sets is
// kept in the client's jar.
func (c *Client) Login(ctx context.Context, creds model.LoginRequest) (string, error) {
	const op = "login"

	env, err := c.postStatus(ctx, op, pathLogin, creds)
	if err != nil {
		return "", err
	}
	if !env.ok() {
		return "", validationError(op, messageOr(env.Message, "Login failed"))
	}
	return env.AccountType, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, signup model.SignupRequest) error {
	const op = "signup"

	if signup.AccountType != model.AccountAgency {
		signup.AgencyName = ""
	}
	env, err := c.postStatus(ctx, op, pathSignup, signup)
	if err != nil {
		return err
	}
	if !env.ok() {
		return validationError(op, messageOr(env.Message, "Error registering user"))
	}
	return nil
}

func (c *Client) postStatus(ctx context.Context, op, endpoint string, form interface{}) (statusEnvelope, error) {
	req, err := c.newForm(ctx, endpoint, form)
	if err != nil {
		return statusEnvelope{}, protocolError(op, "build request", err)
	}

	code, body, err := c.do(op, req)
	if err != nil {
		return statusEnvelope{}, err
	}
	env, err := decodeStatus(body)
	if err != nil {
		if !success(code) {
			return statusEnvelope{}, unexpectedStatus(op, code)
		}
		return statusEnvelope{}, protocolError(op, "malformed status envelope", err)
	}
	return env, nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
