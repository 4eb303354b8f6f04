package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/hbd/internal/client/birthdays"
	"github.com/dmitrijs2005/hbd/internal/client/client"
	"github.com/dmitrijs2005/hbd/internal/client/config"
	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/client/services"
	"github.com/dmitrijs2005/hbd/internal/client/session"
	"github.com/dmitrijs2005/hbd/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionState is what the CLI needs to know about the current session.
type sessionState interface {
	IsAuthenticated() bool
	Email() string
}

// birthdayList is the list manager surface used by the commands.
type birthdayList interface {
	Items() []models.Birthday
	Get(id string) (models.Birthday, bool)
	Add(ctx context.Context, name, date string) (models.Birthday, error)
	Update(ctx context.Context, id, name, date string) (models.Birthday, error)
	Remove(ctx context.Context, id string) error
}

type App struct {
	config      *config.Config
	log         logging.Logger
	authService services.AuthService
	session     sessionState
	list        birthdayList
	reader      *bufio.Reader
	out         io.Writer
	closers     []func() error

	modeMu sync.RWMutex
	mode   Mode

	view view
}

// NewApp opens the local database and wires the services for cfg. The REPL
// reads stdin and writes prompts to stdout.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	return newApp(ctx, cfg, log, os.Stdin, os.Stdout)
}

func newApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	repos, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", cfg.DatabasePath, "error", err)
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(client.Options{
		BaseURL:   cfg.ServerURL,
		Scheme:    cfg.Scheme(),
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Logger:    log.With("component", "api"),
	})
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	store := session.NewStore(cfg.Scheme(), repos.Metadata, log.With("component", "session"))
	list := birthdays.NewManager(apiClient, store, repos.Birthdays, log.With("component", "birthdays"))
	as := services.NewAuthService(apiClient, store, list, cfg.Scheme(), cfg.DefaultBotAPIKey, log)

	return &App{
		config:      cfg,
		log:         log,
		authService: as,
		session:     store,
		list:        list,
		reader:      bufio.NewReader(in),
		out:         out,
		closers:     []func() error{repos.Close},
	}, nil
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "switched mode", "mode", mode)
	}
}

// Run restores the previous session, starts the connectivity watcher and
// serves the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)

	printlnFn("Welcome to hbd CLI (type 'help' for commands)")
	a.restore(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) restore(ctx context.Context) {
	acc, err := a.authService.Hydrate(ctx)
	switch {
	case err == nil:
		a.setMode(ModeOnline)
		printlnFn("Welcome back, " + acc.Profile.Email + "!")
	case errors.Is(err, services.ErrOffline):
		a.setMode(ModeOffline)
		printlnFn("Server unavailable, showing cached data for " + acc.Profile.Email + ".")
	case errors.Is(err, session.ErrNotAuthenticated):
		printlnFn("Type 'login' or 'register' to begin.")
	default:
		a.report(ctx, "restore session", err)
	}
}

// Close releases the API client and the local database.
func (a *App) Close(ctx context.Context) {
	if err := a.authService.Close(ctx); err != nil {
		a.log.Warn(ctx, "closing api client", "error", err)
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn(ctx, "closing resource", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	s := ""
	if a.isLoggedIn() {
		s = a.session.Email() + " "
	}
	if m := a.Mode(); m != "" {
		s += string(m)
	}
	return s
}

// requireLogin sends the user to the login flow when there is no session.
// It reports whether the command may proceed.
func (a *App) requireLogin(ctx context.Context) bool {
	if a.isLoggedIn() {
		return true
	}
	printlnFn("Please log in first.")
	_ = a.Login(ctx)
	return a.isLoggedIn()
}
