// Package services contains application services for the hbd client.
// This file defines the account service: login, registration, session
// hydration with offline fallback, profile changes and account deletion.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hbd/internal/client/birthdays"
	"github.com/dmitrijs2005/hbd/internal/client/client"
	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/client/session"
	"github.com/dmitrijs2005/hbd/internal/logging"
)

// ErrOffline is returned by Hydrate together with cached data when the
// server could not be reached.
var ErrOffline = errors.New("offline, showing cached data")

// AuthService defines account operations for the CLI.
//
// Contract:
//   - input is validated locally before any request is sent;
//   - local state (session, list, caches) changes only after the server
//     confirms the operation;
//   - an unauthorized answer to Hydrate ends the session.
type AuthService interface {
	Login(ctx context.Context, email, credential string) (*models.Account, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
	Hydrate(ctx context.Context) (*models.Account, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context)
	CheckReminders(ctx context.Context) error
	Profile(ctx context.Context) (models.Profile, bool)
	Ping(ctx context.Context) error
	GenerateKey() (string, error)
	Close(ctx context.Context) error
}

type authService struct {
	client     client.Client
	session    *session.Store
	list       *birthdays.Manager
	scheme     models.Scheme
	defaultBot string
	log        logging.Logger
}

// NewAuthService wires the account service. defaultBot, when set, replaces
// an empty Telegram bot key in registrations and profile updates.
func NewAuthService(c client.Client, s *session.Store, list *birthdays.Manager, scheme models.Scheme, defaultBot string, log logging.Logger) AuthService {
	return &authService{client: c, session: s, list: list, scheme: scheme, defaultBot: defaultBot, log: log}
}

func (a *authService) Login(ctx context.Context, email, credential string) (*models.Account, error) {
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := models.ValidateCredential(a.scheme, credential); err != nil {
		return nil, err
	}

	res, err := a.client.Login(ctx, email, credential)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.session.SetAuthInfo(ctx, res.Account.Profile.Email, res.Credential); err != nil {
		return nil, err
	}
	a.session.SaveProfile(ctx, res.Account.Profile)
	a.list.Replace(ctx, res.Account.Birthdays)

	a.log.Info(ctx, "logged in", "email", res.Account.Profile.Email, "birthdays", len(res.Account.Birthdays))
	return &res.Account, nil
}

// Register creates the account and logs in. In the key scheme an empty
// credential is replaced by a freshly generated key; the credential the
// user has to keep is returned.
func (a *authService) Register(ctx context.Context, reg models.Registration) (string, error) {
	reg.Profile = reg.Profile.WithDefaultBot(a.defaultBot)
	if err := reg.Profile.Validate(); err != nil {
		return "", err
	}

	if a.scheme == models.SchemeKey && reg.Credential == "" {
		key, err := a.GenerateKey()
		if err != nil {
			return "", fmt.Errorf("generate key: %w", err)
		}
		reg.Credential = key
	}
	if err := models.ValidateCredential(a.scheme, reg.Credential); err != nil {
		return "", err
	}

	sessionCred, err := a.client.Register(ctx, reg)
	if err != nil {
		return "", fmt.Errorf("register error: %w", err)
	}

	if err := a.session.SetAuthInfo(ctx, reg.Email, sessionCred); err != nil {
		return "", err
	}
	a.session.SaveProfile(ctx, reg.Profile)
	a.list.Replace(ctx, nil)

	a.log.Info(ctx, "registered", "email", reg.Email)
	return reg.Credential, nil
}

// Hydrate restores a stored session and refreshes profile and list from the
// server through the list manager's Load. When the server is unreachable the
// cached profile and list are returned along with ErrOffline.
func (a *authService) Hydrate(ctx context.Context) (*models.Account, error) {
	if !a.session.IsAuthenticated() && !a.session.Restore(ctx) {
		return nil, session.ErrNotAuthenticated
	}
	creds, err := a.session.Credentials()
	if err != nil {
		return nil, err
	}

	acc, err := a.list.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, client.ErrUnavailable):
		return a.offline(ctx, err)
	case errors.Is(err, client.ErrUnauthorized):
		a.log.Info(ctx, "stored session rejected", "email", creds.Email)
		a.Logout(ctx)
		return nil, fmt.Errorf("session expired: %w", err)
	default:
		return nil, err
	}

	if acc.Profile.Email != "" && acc.Profile.Email != creds.Email {
		if err := a.session.SetEmail(ctx, acc.Profile.Email); err != nil {
			a.log.Warn(ctx, "failed to follow email change", "email", acc.Profile.Email, "error", err)
		}
	}
	a.session.SaveProfile(ctx, acc.Profile)
	return acc, nil
}

func (a *authService) offline(ctx context.Context, cause error) (*models.Account, error) {
	a.log.Warn(ctx, "server unavailable, using cached data", "error", cause)

	acc := &models.Account{Profile: models.Profile{Email: a.session.Email()}}
	if p, ok := a.session.CachedProfile(ctx); ok {
		acc.Profile = p
	}
	if err := a.list.LoadCached(ctx); err != nil {
		a.log.Warn(ctx, "no cached birthdays", "error", err)
	}
	acc.Birthdays = a.list.Items()
	return acc, fmt.Errorf("%w: %w", ErrOffline, cause)
}

func (a *authService) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	upd.Profile = upd.Profile.WithDefaultBot(a.defaultBot)
	if err := upd.Profile.Validate(); err != nil {
		return err
	}
	if a.scheme != models.SchemeToken {
		upd.NewPassword = ""
	}
	creds, err := a.session.Credentials()
	if err != nil {
		return err
	}

	rotated, err := a.client.UpdateProfile(ctx, creds, upd)
	if err != nil {
		return fmt.Errorf("update profile error: %w", err)
	}

	if upd.Email != creds.Email {
		if err := a.session.SetEmail(ctx, upd.Email); err != nil {
			return err
		}
	}
	if rotated != "" {
		if err := a.session.Rotate(ctx, rotated); err != nil {
			return err
		}
	}
	a.session.SaveProfile(ctx, upd.Profile)
	return nil
}

func (a *authService) DeleteAccount(ctx context.Context) error {
	creds, err := a.session.Credentials()
	if err != nil {
		return err
	}
	if err := a.client.DeleteAccount(ctx, creds); err != nil {
		return fmt.Errorf("delete account error: %w", err)
	}

	a.log.Info(ctx, "account deleted", "email", creds.Email)
	a.Logout(ctx)
	return nil
}

// Logout forgets the session, the cached profile and the cached list.
func (a *authService) Logout(ctx context.Context) {
	a.session.Logout(ctx)
	a.list.Reset(ctx)
}

// CheckReminders asks the server to send due reminders now.
func (a *authService) CheckReminders(ctx context.Context) error {
	creds, err := a.session.Credentials()
	if err != nil {
		return err
	}
	return a.client.CheckReminders(ctx, creds)
}

// Profile returns the last known profile of the current user.
func (a *authService) Profile(ctx context.Context) (models.Profile, bool) {
	if !a.session.IsAuthenticated() {
		return models.Profile{}, false
	}
	return a.session.CachedProfile(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) GenerateKey() (string, error) {
	return models.GenerateKey()
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
