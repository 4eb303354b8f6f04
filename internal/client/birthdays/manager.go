package birthdays

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	birthdayrepo "github.com/dmitrijs2005/hbd/internal/client/repositories/birthdays"
	"github.com/dmitrijs2005/hbd/internal/logging"
	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("birthday not found")

// API is the part of the backend client the manager uses.
type API interface {
	FetchProfile(ctx context.Context, creds models.Credentials) (*models.Account, error)
	AddBirthday(ctx context.Context, creds models.Credentials, name, date string) (models.Birthday, error)
	UpdateBirthday(ctx context.Context, creds models.Credentials, b models.Birthday) error
	DeleteBirthday(ctx context.Context, creds models.Credentials, b models.Birthday) error
}

// CredentialSource supplies the credentials of the current session.
type CredentialSource interface {
	Credentials() (models.Credentials, error)
}

type Manager struct {
	mu    sync.RWMutex
	items []models.Birthday

	api     API
	session CredentialSource
	log     logging.Logger
	group   singleflight.Group

	cacheMu sync.Mutex
	cache   birthdayrepo.Repository
}

// NewManager builds an empty manager. cache may be nil.
func NewManager(api API, session CredentialSource, cache birthdayrepo.Repository, log logging.Logger) *Manager {
	return &Manager{api: api, session: session, cache: cache, log: log}
}

// Load replaces the whole list with the server's copy and returns the
// fetched account, so session hydration can reuse its profile.
func (m *Manager) Load(ctx context.Context) (*models.Account, error) {
	creds, err := m.session.Credentials()
	if err != nil {
		return nil, err
	}

	v, err, _ := m.group.Do("load", func() (any, error) {
		acc, err := m.api.FetchProfile(ctx, creds)
		if err != nil {
			return nil, err
		}
		m.set(acc.Birthdays)
		return acc, nil
	})
	if err != nil {
		return nil, err
	}

	m.persist(ctx)
	return v.(*models.Account), nil
}

// Replace sets the list from an already fetched account, e.g. a login answer.
func (m *Manager) Replace(ctx context.Context, items []models.Birthday) {
	m.set(items)
	m.persist(ctx)
}

// Add creates a record on the server and appends the stored version.
func (m *Manager) Add(ctx context.Context, name, date string) (models.Birthday, error) {
	if err := models.ValidateBirthday(name, date); err != nil {
		return models.Birthday{}, err
	}
	creds, err := m.session.Credentials()
	if err != nil {
		return models.Birthday{}, err
	}

	v, err, shared := m.group.Do(flightKey("add", name, date), func() (any, error) {
		b, err := m.api.AddBirthday(ctx, creds, name, date)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.items = append(m.items, b)
		m.mu.Unlock()
		m.persist(ctx)
		return b, nil
	})
	if err != nil {
		return models.Birthday{}, err
	}
	if shared {
		m.log.Debug(ctx, "duplicate add collapsed", "name", name, "date", date)
	}
	return v.(models.Birthday), nil
}

// Update changes name and date of the record with id, keeping its position.
func (m *Manager) Update(ctx context.Context, id, name, date string) (models.Birthday, error) {
	if err := models.ValidateBirthday(name, date); err != nil {
		return models.Birthday{}, err
	}
	if _, ok := m.Get(id); !ok {
		return models.Birthday{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	creds, err := m.session.Credentials()
	if err != nil {
		return models.Birthday{}, err
	}

	updated := models.Birthday{ID: id, Name: name, Date: date}
	v, err, _ := m.group.Do(flightKey("update", id, name, date), func() (any, error) {
		if err := m.api.UpdateBirthday(ctx, creds, updated); err != nil {
			return nil, err
		}
		m.mu.Lock()
		if i := m.indexLocked(id); i >= 0 {
			m.items[i] = updated
		}
		m.mu.Unlock()
		m.persist(ctx)
		return updated, nil
	})
	if err != nil {
		return models.Birthday{}, err
	}
	return v.(models.Birthday), nil
}

// Remove deletes the record with id on the server and then locally.
func (m *Manager) Remove(ctx context.Context, id string) error {
	b, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	creds, err := m.session.Credentials()
	if err != nil {
		return err
	}

	_, err, _ = m.group.Do(flightKey("remove", id), func() (any, error) {
		if err := m.api.DeleteBirthday(ctx, creds, b); err != nil {
			return nil, err
		}
		m.mu.Lock()
		if i := m.indexLocked(id); i >= 0 {
			m.items = append(m.items[:i:i], m.items[i+1:]...)
		}
		m.mu.Unlock()
		m.persist(ctx)
		return nil, nil
	})
	return err
}

// Items returns a copy of the list in display order.
func (m *Manager) Items() []models.Birthday {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Birthday, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) Get(id string) (models.Birthday, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexLocked(id); i >= 0 {
		return m.items[i], true
	}
	return models.Birthday{}, false
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// LoadCached fills the list from the local table without contacting the
// server.
func (m *Manager) LoadCached(ctx context.Context) error {
	if m.cache == nil {
		return nil
	}
	items, err := m.cache.List(ctx)
	if err != nil {
		return fmt.Errorf("read cached birthdays: %w", err)
	}
	m.set(items)
	return nil
}

// Reset empties the list and the local table.
func (m *Manager) Reset(ctx context.Context) {
	m.set(nil)

	if m.cache == nil {
		return
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if err := m.cache.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear birthday cache", "error", err)
	}
}

func (m *Manager) set(items []models.Birthday) {
	list := make([]models.Birthday, len(items))
	copy(list, items)

	m.mu.Lock()
	m.items = list
	m.mu.Unlock()
}

func (m *Manager) indexLocked(id string) int {
	for i, b := range m.items {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the current list to the cache. The snapshot is taken under
// cacheMu so concurrent writers land in order.
func (m *Manager) persist(ctx context.Context) {
	if m.cache == nil {
		return
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if err := m.cache.ReplaceAll(ctx, m.Items()); err != nil {
		m.log.Warn(ctx, "failed to cache birthdays", "error", err)
	}
}

func flightKey(op string, parts ...string) string {
	key := op
	for _, p := range parts {
		key += "\x00" + p
	}
	return key
}
