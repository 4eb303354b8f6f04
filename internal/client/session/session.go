// Package session keeps the identity of the logged-in user and the
// credential presented with every authenticated request. The Store is the
// single source of truth for both and survives restarts through the
// metadata repository.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/hbd/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// Storage keys in the metadata table.
const (
	KeyEmail      = "email"
	KeyCredential = "credential"
	KeyProfile    = "profile"
)

var ErrNotAuthenticated = errors.New("not logged in")

// Store is safe for concurrent use. A nil repository keeps the session in
// memory only.
type Store struct {
	mu         sync.RWMutex
	email      string
	credential string
	expiresAt  time.Time
	profile    *models.Profile

	scheme models.Scheme
	repo   metadata.Repository
	log    logging.Logger
	now    func() time.Time
}

func NewStore(scheme models.Scheme, repo metadata.Repository, log logging.Logger) *Store {
	return &Store{scheme: scheme, repo: repo, log: log, now: time.Now}
}

// SetAuthInfo records a successful login. Persistence is best effort: a
// storage failure is logged and the in-memory session is still updated.
func (s *Store) SetAuthInfo(ctx context.Context, email, credential string) error {
	if email == "" {
		return models.ErrEmptyEmail
	}
	if credential == "" {
		return models.ErrEmptyCredential
	}

	s.mu.Lock()
	s.email = email
	s.credential = credential
	s.expiresAt = s.expiry(credential)
	s.mu.Unlock()

	s.persist(ctx, map[string]string{KeyEmail: email, KeyCredential: credential})
	return nil
}

// Rotate replaces the credential of the current session.
func (s *Store) Rotate(ctx context.Context, credential string) error {
	if credential == "" {
		return models.ErrEmptyCredential
	}

	s.mu.Lock()
	if s.email == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.credential = credential
	s.expiresAt = s.expiry(credential)
	s.mu.Unlock()

	s.persist(ctx, map[string]string{KeyCredential: credential})
	return nil
}

// SetEmail follows an email change made through a profile update.
func (s *Store) SetEmail(ctx context.Context, email string) error {
	if email == "" {
		return models.ErrEmptyEmail
	}

	s.mu.Lock()
	if s.credential == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.email = email
	s.mu.Unlock()

	s.persist(ctx, map[string]string{KeyEmail: email})
	return nil
}

// Logout forgets the session and the cached profile.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.email = ""
	s.credential = ""
	s.expiresAt = time.Time{}
	s.profile = nil
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	if err := s.repo.Delete(ctx, KeyEmail, KeyCredential, KeyProfile); err != nil {
		s.log.Warn(ctx, "failed to clear stored session", "error", err)
	}
}

// Restore loads a previously stored session. Memory is populated only when
// both email and credential are present; an expired token is dropped.
func (s *Store) Restore(ctx context.Context) bool {
	if s.repo == nil {
		return false
	}

	email, err := s.repo.Get(ctx, KeyEmail)
	if err != nil {
		s.log.Warn(ctx, "failed to read stored email", "error", err)
		return false
	}
	cred, err := s.repo.Get(ctx, KeyCredential)
	if err != nil {
		s.log.Warn(ctx, "failed to read stored credential", "error", err)
		return false
	}
	if len(email) == 0 || len(cred) == 0 {
		return false
	}

	exp := s.expiry(string(cred))
	if !exp.IsZero() && !s.now().Before(exp) {
		s.log.Info(ctx, "stored token expired", "email", string(email), "expired_at", exp)
		s.Logout(ctx)
		return false
	}

	s.mu.Lock()
	s.email = string(email)
	s.credential = string(cred)
	s.expiresAt = exp
	s.mu.Unlock()
	return true
}

// SaveProfile caches the notification settings for offline display.
func (s *Store) SaveProfile(ctx context.Context, p models.Profile) {
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()

	if s.repo == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.log.Warn(ctx, "failed to encode profile", "error", err)
		return
	}
	if err := s.repo.Set(ctx, KeyProfile, data); err != nil {
		s.log.Warn(ctx, "failed to store profile", "error", err)
	}
}

// CachedProfile returns the last profile saved with SaveProfile, from
// memory or, after a restart, from storage.
func (s *Store) CachedProfile(ctx context.Context) (models.Profile, bool) {
	s.mu.RLock()
	p := s.profile
	s.mu.RUnlock()
	if p != nil {
		return *p, true
	}

	if s.repo == nil {
		return models.Profile{}, false
	}
	data, err := s.repo.Get(ctx, KeyProfile)
	if err != nil || len(data) == 0 {
		return models.Profile{}, false
	}
	var stored models.Profile
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Warn(ctx, "stored profile is corrupt", "error", err)
		return models.Profile{}, false
	}
	return stored, true
}

func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email != "" && s.credential != ""
}

// Credentials returns the pair to present to the backend, or
// ErrNotAuthenticated.
func (s *Store) Credentials() (models.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.email == "" || s.credential == "" {
		return models.Credentials{}, ErrNotAuthenticated
	}
	return models.Credentials{Email: s.email, Secret: s.credential}, nil
}

// ExpiresAt is the token expiry, zero when unknown or not applicable.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *Store) persist(ctx context.Context, values map[string]string) {
	if s.repo == nil {
		return
	}
	raw := make(map[string][]byte, len(values))
	for k, v := range values {
		raw[k] = []byte(v)
	}
	if err := s.repo.SetMany(ctx, raw); err != nil {
		s.log.Warn(ctx, "failed to persist session", "error", err)
	}
}

// expiry reads the exp claim of a token without verifying it. Signature
// checks belong to the backend; the client only avoids presenting a token
// it knows is stale.
func (s *Store) expiry(credential string) time.Time {
	if s.scheme != models.SchemeToken {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
