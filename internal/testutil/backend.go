// Package testutil holds helpers shared by tests of several packages: a
// no-op logger and an in-memory fake of the hbd backend.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var tokenSecret = []byte("hbd-test-secret")

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

type user struct {
	profile    models.Profile
	credential string
	birthdays  []record
}

type override struct {
	status int
	body   string
}

// Backend is an httptest server speaking the hbd REST API for one scheme.
// All state is in memory and guarded by mu.
type Backend struct {
	Server *httptest.Server

	// TokenTTL is the lifetime of minted tokens.
	TokenTTL time.Duration

	// RotateOnModify makes /modify-user return a fresh token.
	RotateOnModify bool

	scheme models.Scheme

	mu        sync.Mutex
	users     map[string]*user
	tokens    map[string]string
	nextID    int
	calls     map[string]int
	overrides map[string]override
	holds     map[string]chan struct{}
}

// NewBackend starts a fake backend that is closed when t finishes.
func NewBackend(t *testing.T, scheme models.Scheme) *Backend {
	t.Helper()

	b := &Backend{
		TokenTTL:  time.Hour,
		scheme:    scheme,
		users:     map[string]*user{},
		tokens:    map[string]string{},
		calls:     map[string]int{},
		overrides: map[string]override{},
		holds:     map[string]chan struct{}{},
	}

	r := chi.NewRouter()
	r.Use(b.intercept)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/register", b.handleRegister)
	r.Post("/login", b.handleLogin)
	r.Get("/me", b.handleMe)
	r.Put("/modify-user", b.handleModifyUser)
	r.Delete("/delete-user", b.handleDeleteUser)
	r.Post("/check-birthdays", b.handleCheck)
	r.Post("/add-birthday", b.handleAddBirthday)
	r.Put("/modify-birthday", b.handleModifyBirthday)
	r.Delete("/delete-birthday", b.handleDeleteBirthday)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) URL() string { return b.Server.URL }

// Seed creates an account directly. credential is the key or the password
// depending on the scheme.
func (b *Backend) Seed(p models.Profile, credential string, birthdays ...models.Birthday) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := &user{profile: p, credential: credential}
	for _, bd := range birthdays {
		b.nextID++
		u.birthdays = append(u.birthdays, record{ID: b.nextID, Name: bd.Name, Date: bd.Date})
	}
	b.users[p.Email] = u
}

// IssueToken mints a token for email as a successful login would.
func (b *Backend) IssueToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mintLocked(email)
}

// Birthdays returns the server-side list of email.
func (b *Backend) Birthdays(email string) []models.Birthday {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[email]
	if !ok {
		return nil
	}
	out := make([]models.Birthday, 0, len(u.birthdays))
	for _, r := range u.birthdays {
		out = append(out, models.Birthday{ID: strconv.Itoa(r.ID), Name: r.Name, Date: r.Date})
	}
	return out
}

// Profile returns the server-side profile of email.
func (b *Backend) Profile(email string) (models.Profile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[email]
	if !ok {
		return models.Profile{}, false
	}
	return u.profile, true
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// TotalCalls returns the number of requests of any path.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Respond makes every request to path answer with status and a raw body
// until Reset is called.
func (b *Backend) Respond(path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[path] = override{status: status, body: body}
}

// Reset drops all overrides set by Respond.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides = map[string]override{}
}

// Hold blocks requests to path until the returned func is called.
func (b *Backend) Hold(path string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[path] = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.holds, path)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		hold := b.holds[r.URL.Path]
		ov, overridden := b.overrides[r.URL.Path]
		b.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}

		if overridden {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(ov.status)
			_, _ = w.Write([]byte(ov.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authBody struct {
	Email         string `json:"email"`
	EncryptionKey string `json:"encryption_key"`
}

type request struct {
	authBody
	Password          string `json:"password"`
	ReminderTime      string `json:"reminder_time"`
	Timezone          string `json:"timezone"`
	TelegramBotAPIKey string `json:"telegram_bot_api_key"`
	TelegramUserID    string `json:"telegram_user_id"`

	NewEmail             string `json:"new_email"`
	NewPassword          string `json:"new_password"`
	NewReminderTime      string `json:"new_reminder_time"`
	NewTimezone          string `json:"new_timezone"`
	NewTelegramBotAPIKey string `json:"new_telegram_bot_api_key"`
	NewTelegramUserID    string `json:"new_telegram_user_id"`

	Auth *authBody `json:"auth"`

	ID   any    `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}

func decode(w http.ResponseWriter, r *http.Request) (*request, bool) {
	var req request
	if r.ContentLength == 0 {
		return &req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return nil, false
	}
	return &req, true
}

func (b *Backend) credentialOf(req *request) string {
	if b.scheme == models.SchemeToken {
		return req.Password
	}
	return req.EncryptionKey
}

func (b *Backend) mintLocked(email string) string {
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(b.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokenSecret)
	if err != nil {
		panic(err)
	}
	b.tokens[token] = email
	return token
}

// authenticate resolves the caller under mu. It writes 401 and returns nil
// when the credential is missing or wrong.
func (b *Backend) authenticate(w http.ResponseWriter, r *http.Request, req *request) *user {
	var u *user
	switch b.scheme {
	case models.SchemeToken:
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if email, ok := b.tokens[token]; ok {
			u = b.users[email]
		}
	default:
		auth := req.Auth
		if auth == nil {
			auth = &req.authBody
		}
		if cand, ok := b.users[auth.Email]; ok && auth.EncryptionKey != "" && cand.credential == auth.EncryptionKey {
			u = cand
		}
	}
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid credentials"))
	}
	return u
}

func (b *Backend) account(u *user) map[string]any {
	list := make([]record, len(u.birthdays))
	copy(list, u.birthdays)
	return map[string]any{
		"email":                u.profile.Email,
		"reminder_time":        u.profile.ReminderTime,
		"timezone":             u.profile.Timezone,
		"telegram_bot_api_key": u.profile.TelegramBotAPIKey,
		"telegram_user_id":     u.profile.TelegramUserID,
		"birthdays":            list,
	}
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	cred := b.credentialOf(req)
	if req.Email == "" || cred == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("email and credential are required"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[req.Email]; exists {
		writeJSON(w, http.StatusConflict, errorResponse("Email already registered"))
		return
	}
	if b.scheme == models.SchemeKey {
		for _, u := range b.users {
			if u.credential == cred {
				writeJSON(w, http.StatusConflict, errorResponse("Encryption key already registered"))
				return
			}
		}
	}

	b.users[req.Email] = &user{
		credential: cred,
		profile: models.Profile{
			Email:             req.Email,
			ReminderTime:      req.ReminderTime,
			Timezone:          req.Timezone,
			TelegramBotAPIKey: req.TelegramBotAPIKey,
			TelegramUserID:    req.TelegramUserID,
		},
	}

	resp := map[string]any{"success": true}
	if b.scheme == models.SchemeToken {
		resp["token"] = b.mintLocked(req.Email)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, exists := b.users[req.Email]
	if !exists || u.credential != b.credentialOf(req) {
		writeJSON(w, http.StatusUnauthorized, errorResponse("invalid credentials"))
		return
	}

	resp := b.account(u)
	if b.scheme == models.SchemeToken {
		resp["token"] = b.mintLocked(u.profile.Email)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.authenticate(w, r, &request{})
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, b.account(u))
}

func (b *Backend) handleModifyUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.authenticate(w, r, req)
	if u == nil {
		return
	}

	if req.NewEmail != "" && req.NewEmail != u.profile.Email {
		if _, taken := b.users[req.NewEmail]; taken {
			writeJSON(w, http.StatusConflict, errorResponse("Email already registered"))
			return
		}
		old := u.profile.Email
		delete(b.users, old)
		u.profile.Email = req.NewEmail
		b.users[req.NewEmail] = u
		for t, e := range b.tokens {
			if e == old {
				b.tokens[t] = req.NewEmail
			}
		}
	}
	if req.NewReminderTime != "" {
		u.profile.ReminderTime = req.NewReminderTime
	}
	if req.NewTimezone != "" {
		u.profile.Timezone = req.NewTimezone
	}
	if req.NewTelegramBotAPIKey != "" {
		u.profile.TelegramBotAPIKey = req.NewTelegramBotAPIKey
	}
	if req.NewTelegramUserID != "" {
		u.profile.TelegramUserID = req.NewTelegramUserID
	}
	if req.NewPassword != "" && b.scheme == models.SchemeToken {
		u.credential = req.NewPassword
	}

	resp := map[string]any{"success": true}
	if b.RotateOnModify && b.scheme == models.SchemeToken {
		resp["token"] = b.mintLocked(u.profile.Email)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.authenticate(w, r, req)
	if u == nil {
		return
	}
	delete(b.users, u.profile.Email)
	for t, e := range b.tokens {
		if e == u.profile.Email {
			delete(b.tokens, t)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) handleCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.authenticate(w, r, req) == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) handleAddBirthday(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.authenticate(w, r, req)
	if u == nil {
		return
	}
	if req.Name == "" || req.Date == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse("name and date are required"))
		return
	}

	b.nextID++
	rec := record{ID: b.nextID, Name: req.Name, Date: req.Date}
	u.birthdays = append(u.birthdays, rec)
	writeJSON(w, http.StatusOK, rec)
}

// findLocked returns the index of the birthday with the request id, or
// writes 404.
func findLocked(w http.ResponseWriter, u *user, req *request) int {
	id := fmt.Sprint(req.ID)
	for i, rec := range u.birthdays {
		if strconv.Itoa(rec.ID) == id {
			return i
		}
	}
	writeJSON(w, http.StatusNotFound, errorResponse("birthday not found"))
	return -1
}

func (b *Backend) handleModifyBirthday(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.authenticate(w, r, req)
	if u == nil {
		return
	}
	i := findLocked(w, u, req)
	if i < 0 {
		return
	}
	u.birthdays[i].Name = req.Name
	u.birthdays[i].Date = req.Date
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) handleDeleteBirthday(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.authenticate(w, r, req)
	if u == nil {
		return
	}
	i := findLocked(w, u, req)
	if i < 0 {
		return
	}
	u.birthdays = append(u.birthdays[:i], u.birthdays[i+1:]...)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
