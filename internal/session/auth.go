package session

import (
	"context"
	"log"
	"strings"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/pkg/errors"
)

// Landing pages the UI navigates to after login.
const (
	LandingDashboard = "dashboard"
	LandingHomepage  = "homepage"
)

// Login authenticates the session against the backend. The backend's
// session cookie lands in the session's jar, and the view is reloaded so
// the user details reflect the new identity.
func (m *Manager) Login(ctx context.Context, sess *Session, creds model.LoginRequest) (model.LoginResponse, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := util.ValidateStruct(creds); err != nil {
		return model.LoginResponse{}, errors.Wrap(err, "invalid credentials")
	}

	accountType, err := sess.Client.Login(ctx, creds)
	if err != nil {
		return model.LoginResponse{}, err
	}

	sess.mu.Lock()
	sess.accountType = accountType
	sess.mu.Unlock()

	if _, err := sess.Store.Load(ctx); err != nil {
		log.Printf("[session]: reloading view after login failed: %v", err)
	}

	return model.LoginResponse{AccountType: accountType, Landing: landingFor(accountType)}, nil
}

// Signup registers an account. It does not log the session in.
func (m *Manager) Signup(ctx context.Context, sess *Session, req model.SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := util.ValidateStruct(req); err != nil {
		return errors.Wrap(err, "invalid signup")
	}
	if req.AccountType == model.AccountAgency && !util.NotBlank(req.AgencyName) {
		return errors.New("agency name is required for agency accounts")
	}
	return sess.Client.Signup(ctx, req)
}

func landingFor(accountType string) string {
	if accountType == model.AccountAgency {
		return LandingDashboard
	}
	return LandingHomepage
}
