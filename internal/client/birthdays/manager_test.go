package birthdays

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/hbd/internal/client/client"
	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/client/session"
	"github.com/dmitrijs2005/hbd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// fakeAPI hands out sequential ids and can fail or block on demand.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int
	server  []models.Birthday
	fail    error
	block   chan struct{}
	adds    atomic.Int32
	updates atomic.Int32
	deletes atomic.Int32
}

func (f *fakeAPI) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeAPI) FetchProfile(_ context.Context, creds models.Credentials) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	list := make([]models.Birthday, len(f.server))
	copy(list, f.server)
	return &models.Account{Profile: models.Profile{Email: creds.Email}, Birthdays: list}, nil
}

func (f *fakeAPI) AddBirthday(_ context.Context, _ models.Credentials, name, date string) (models.Birthday, error) {
	f.adds.Add(1)
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return models.Birthday{}, f.fail
	}
	f.nextID++
	b := models.Birthday{ID: strconv.Itoa(f.nextID), Name: name, Date: date}
	f.server = append(f.server, b)
	return b, nil
}

func (f *fakeAPI) UpdateBirthday(_ context.Context, _ models.Credentials, b models.Birthday) error {
	f.updates.Add(1)
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeAPI) DeleteBirthday(_ context.Context, _ models.Credentials, b models.Birthday) error {
	f.deletes.Add(1)
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for i, s := range f.server {
		if s.ID == b.ID {
			f.server = append(f.server[:i], f.server[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAPI) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func loggedIn(t *testing.T) *session.Store {
	t.Helper()
	s := session.NewStore(models.SchemeKey, nil, testutil.MakeNoopLogger())
	require.NoError(t, s.SetAuthInfo(context.Background(), "alice@x.io", "k"))
	return s
}

func newManager(t *testing.T, api API) *Manager {
	t.Helper()
	return NewManager(api, loggedIn(t), nil, testutil.MakeNoopLogger())
}

func TestManager_AliceScenario(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &fakeAPI{})

	b, err := m.Add(ctx, "Alice", "2024-06-20")
	require.NoError(t, err)
	require.Equal(t, []models.Birthday{{ID: "1", Name: "Alice", Date: "2024-06-20"}}, m.Items())

	_, err = m.Update(ctx, b.ID, "Alice", "2024-06-21")
	require.NoError(t, err)
	require.Equal(t, []models.Birthday{{ID: "1", Name: "Alice", Date: "2024-06-21"}}, m.Items())

	require.NoError(t, m.Remove(ctx, "1"))
	require.Empty(t, m.Items())
	require.Equal(t, 0, m.Len())
}

func TestManager_AddThenLoad(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := newManager(t, api)

	_, err := m.Add(ctx, "Bob", "0000-12-24")
	require.NoError(t, err)
	_, err = m.Load(ctx)
	require.NoError(t, err)

	items := m.Items()
	require.Len(t, items, 1)
	require.Equal(t, "Bob", items[0].Name)
	require.Equal(t, "0000-12-24", items[0].Date)
	require.NotEmpty(t, items[0].ID)
}

func TestManager_AddValidatesLocally(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := newManager(t, api)

	_, err := m.Add(ctx, "", "2024-06-20")
	require.ErrorIs(t, err, models.ErrEmptyName)
	_, err = m.Add(ctx, "Bob", "")
	require.ErrorIs(t, err, models.ErrEmptyDate)
	_, err = m.Add(ctx, "Bob", "2023-02-29")
	require.ErrorIs(t, err, models.ErrInvalidDate)

	require.Zero(t, api.adds.Load())
	require.Zero(t, m.Len())
}

func TestManager_FailuresLeaveListUnchanged(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := newManager(t, api)

	for _, n := range []string{"A", "B", "C"} {
		_, err := m.Add(ctx, n, "2000-01-01")
		require.NoError(t, err)
	}
	before := m.Items()

	api.setFail(errBoom)

	_, err := m.Add(ctx, "D", "2000-01-01")
	require.ErrorIs(t, err, errBoom)
	_, err = m.Update(ctx, "2", "B2", "2000-01-02")
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, m.Remove(ctx, "2"), errBoom)
	_, err = m.Load(ctx)
	require.ErrorIs(t, err, errBoom)

	require.Equal(t, before, m.Items())
}

func TestManager_UpdateKeepsPositions(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &fakeAPI{})
	for _, n := range []string{"A", "B", "C"} {
		_, err := m.Add(ctx, n, "2000-01-01")
		require.NoError(t, err)
	}

	_, err := m.Update(ctx, "2", "Bee", "2001-02-03")
	require.NoError(t, err)

	require.Equal(t, []models.Birthday{
		{ID: "1", Name: "A", Date: "2000-01-01"},
		{ID: "2", Name: "Bee", Date: "2001-02-03"},
		{ID: "3", Name: "C", Date: "2000-01-01"},
	}, m.Items())
}

func TestManager_RemoveExactlyOne(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &fakeAPI{})
	for _, n := range []string{"A", "B", "C"} {
		_, err := m.Add(ctx, n, "2000-01-01")
		require.NoError(t, err)
	}

	require.NoError(t, m.Remove(ctx, "2"))
	require.Equal(t, []string{"1", "3"}, ids(m.Items()))

	require.ErrorIs(t, m.Remove(ctx, "2"), ErrNotFound)
	_, err := m.Update(ctx, "9", "X", "2000-01-01")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_MatchesByIDAtApplyTime(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := newManager(t, api)
	for _, n := range []string{"A", "B", "C"} {
		_, err := m.Add(ctx, n, "2000-01-01")
		require.NoError(t, err)
	}

	api.block = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := m.Update(ctx, "3", "Cee", "2000-03-03")
		done <- err
	}()
	require.Eventually(t, func() bool { return api.updates.Load() == 1 }, time.Second, 5*time.Millisecond)

	// The list shifts while the update is in flight.
	m.Replace(ctx, []models.Birthday{
		{ID: "3", Name: "C", Date: "2000-01-01"},
		{ID: "1", Name: "A", Date: "2000-01-01"},
	})
	close(api.block)
	require.NoError(t, <-done)

	require.Equal(t, []models.Birthday{
		{ID: "3", Name: "Cee", Date: "2000-03-03"},
		{ID: "1", Name: "A", Date: "2000-01-01"},
	}, m.Items())
}

func TestManager_DuplicateAddCollapsed(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{block: make(chan struct{})}
	m := newManager(t, api)

	results := make(chan models.Birthday, 2)
	add := func() {
		b, err := m.Add(ctx, "Alice", "2024-06-20")
		assert.NoError(t, err)
		results <- b
	}

	go add()
	require.Eventually(t, func() bool { return api.adds.Load() == 1 }, time.Second, 5*time.Millisecond)
	go add()
	time.Sleep(20 * time.Millisecond)
	close(api.block)

	first, second := <-results, <-results
	require.Equal(t, first, second)
	require.Equal(t, int32(1), api.adds.Load())
	require.Equal(t, 1, m.Len())
}

func TestManager_DifferentEditsOfOneIDAreNotShared(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := newManager(t, api)
	_, err := m.Add(ctx, "Alice", "2024-06-20")
	require.NoError(t, err)

	api.block = make(chan struct{})
	type result struct {
		b   models.Birthday
		err error
	}
	results := make(chan result, 2)
	update := func(name string) {
		b, err := m.Update(ctx, "1", name, "2024-06-21")
		results <- result{b, err}
	}

	go update("Alicia")
	require.Eventually(t, func() bool { return api.updates.Load() == 1 }, time.Second, 5*time.Millisecond)
	go update("Ally")
	require.Eventually(t, func() bool { return api.updates.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(api.block)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		r := <-results
		require.NoError(t, r.err)
		got[r.b.Name] = true
	}
	require.Equal(t, map[string]bool{"Alicia": true, "Ally": true}, got)
	require.Equal(t, 1, m.Len())
}

func TestManager_SameEditCollapsed(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := newManager(t, api)
	_, err := m.Add(ctx, "Alice", "2024-06-20")
	require.NoError(t, err)

	api.block = make(chan struct{})
	done := make(chan models.Birthday, 2)
	update := func() {
		b, err := m.Update(ctx, "1", "Alicia", "2024-06-21")
		assert.NoError(t, err)
		done <- b
	}

	go update()
	require.Eventually(t, func() bool { return api.updates.Load() == 1 }, time.Second, 5*time.Millisecond)
	go update()
	time.Sleep(20 * time.Millisecond)
	close(api.block)

	require.Equal(t, <-done, <-done)
	require.Equal(t, int32(1), api.updates.Load())
}

func TestManager_LoadReturnsAccount(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{server: []models.Birthday{{ID: "5", Name: "Mom", Date: "1960-03-08"}}}
	m := newManager(t, api)

	acc, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice@x.io", acc.Profile.Email)
	require.Equal(t, acc.Birthdays, m.Items())
}

func TestManager_ItemsIsACopy(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, &fakeAPI{})
	_, err := m.Add(ctx, "A", "2000-01-01")
	require.NoError(t, err)

	items := m.Items()
	items[0].Name = "changed"
	got, ok := m.Get("1")
	require.True(t, ok)
	require.Equal(t, "A", got.Name)
}

func TestManager_RequiresSession(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	m := NewManager(api, session.NewStore(models.SchemeKey, nil, testutil.MakeNoopLogger()), nil, testutil.MakeNoopLogger())

	_, err := m.Add(ctx, "A", "2000-01-01")
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	_, err = m.Load(ctx)
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	require.Zero(t, api.adds.Load())
}

func TestManager_CacheWriteThrough(t *testing.T) {
	ctx := context.Background()
	repos, err := client.InitDatabase(ctx, filepath.Join(t.TempDir(), "hbd.db"))
	require.NoError(t, err)
	defer repos.Close()

	api := &fakeAPI{}
	m := NewManager(api, loggedIn(t), repos.Birthdays, testutil.MakeNoopLogger())
	_, err = m.Add(ctx, "A", "2000-01-01")
	require.NoError(t, err)
	_, err = m.Add(ctx, "B", "2000-01-02")
	require.NoError(t, err)
	require.NoError(t, m.Remove(ctx, "1"))

	offline := NewManager(api, loggedIn(t), repos.Birthdays, testutil.MakeNoopLogger())
	require.NoError(t, offline.LoadCached(ctx))
	require.Equal(t, []models.Birthday{{ID: "2", Name: "B", Date: "2000-01-02"}}, offline.Items())

	offline.Reset(ctx)
	require.Zero(t, offline.Len())

	cached, err := repos.Birthdays.List(ctx)
	require.NoError(t, err)
	require.Empty(t, cached)
}

func TestManager_AgainstFakeBackend(t *testing.T) {
	ctx := context.Background()
	be := testutil.NewBackend(t, models.SchemeKey)
	key, err := models.GenerateKey()
	require.NoError(t, err)
	be.Seed(models.Profile{Email: "alice@x.io", ReminderTime: "09:00", Timezone: "UTC"}, key, models.Birthday{Name: "Mom", Date: "1960-03-08"})

	c, err := client.NewHTTPClient(client.Options{BaseURL: be.URL(), Scheme: models.SchemeKey, Logger: testutil.MakeNoopLogger()})
	require.NoError(t, err)

	s := session.NewStore(models.SchemeKey, nil, testutil.MakeNoopLogger())
	require.NoError(t, s.SetAuthInfo(ctx, "alice@x.io", key))

	m := NewManager(c, s, nil, testutil.MakeNoopLogger())
	_, err = m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	b, err := m.Add(ctx, "Alice", "2024-06-20")
	require.NoError(t, err)
	require.Equal(t, be.Birthdays("alice@x.io"), m.Items())

	require.NoError(t, m.Remove(ctx, b.ID))
	require.Equal(t, be.Birthdays("alice@x.io"), m.Items())
}

func ids(items []models.Birthday) []string {
	out := make([]string, 0, len(items))
	for _, b := range items {
		out = append(out, b.ID)
	}
	return out
}
