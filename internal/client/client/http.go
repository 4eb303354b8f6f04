package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/dmitrijs2005/hbd/internal/common"
	"github.com/dmitrijs2005/hbd/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Options configures an HTTPClient. Zero RateLimit disables throttling.
type Options struct {
	BaseURL    string
	Scheme     models.Scheme
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	HTTPClient *http.Client
	Logger     logging.Logger
}

type HTTPClient struct {
	baseURL string
	scheme  authScheme
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	log     logging.Logger
}

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	scheme, err := newScheme(opts.Scheme)
	if err != nil {
		return nil, err
	}
	if opts.BaseURL == "" {
		return nil, errors.New("empty server URL")
	}
	if opts.Logger == nil {
		return nil, errors.New("nil logger")
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		scheme:  scheme,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		log:     opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// call describes one request. auth is nil for anonymous endpoints.
type call struct {
	op     string
	method string
	path   string
	auth   *models.Credentials
	body   map[string]any
	out    any
}

func (c *HTTPClient) do(ctx context.Context, cl call) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	log := c.log.With("op", cl.op)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(common.RequestIDHeaderName, requestID)
	req.Header.Set("Accept", "application/json")

	if cl.auth != nil && cl.body == nil && cl.method != http.MethodGet {
		cl.body = map[string]any{}
	}
	if cl.auth != nil {
		c.scheme.authorize(req, cl.body, *cl.auth)
	}
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(payload))
		req.ContentLength = int64(len(payload))
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn(ctx, "request failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn(ctx, "reading response failed", "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Debug(ctx, "request done", "method", cl.method, "path", cl.path,
		"status", resp.StatusCode, "duration", time.Since(started))

	if err := mapStatus(resp.StatusCode, data); err != nil {
		log.Warn(ctx, "request rejected", "status", resp.StatusCode, "error", err)
		return err
	}

	if cl.out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, errEmptyBody)
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		log.Warn(ctx, "malformed response", "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// mapStatus turns a non-2xx answer into a sentinel-wrapped error.
func mapStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	msg := http.StatusText(code)
	var e errorDTO
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("%w: %d %s", ErrRejected, code, msg)
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, call{op: "ping", method: http.MethodGet, path: "/health"})
}

func (c *HTTPClient) Login(ctx context.Context, email, credential string) (*LoginResult, error) {
	var out accountDTO
	err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/login",
		body: map[string]any{"email": email, c.scheme.credentialField(): credential},
		out:  &out,
	})
	if err != nil {
		return nil, err
	}

	acc, err := out.account(email)
	if err != nil {
		return nil, err
	}

	res := &LoginResult{Credential: credential, Account: *acc}
	if c.scheme.issuesToken() {
		if out.Token == "" {
			return nil, fmt.Errorf("%w: login response has no token", ErrInvalidResponse)
		}
		res.Credential = out.Token
	}
	return res, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (string, error) {
	var out successDTO
	err := c.do(ctx, call{
		op: "register", method: http.MethodPost, path: "/register",
		body: map[string]any{
			"email":                    reg.Email,
			c.scheme.credentialField(): reg.Credential,
			"reminder_time":            reg.ReminderTime,
			"timezone":                 reg.Timezone,
			"telegram_bot_api_key":     reg.TelegramBotAPIKey,
			"telegram_user_id":         reg.TelegramUserID,
		},
		out: &out,
	})
	if err != nil {
		return "", err
	}
	if err := out.check(); err != nil {
		return "", err
	}

	if !c.scheme.issuesToken() {
		return reg.Credential, nil
	}
	if out.Token == "" {
		return "", fmt.Errorf("%w: register response has no token", ErrInvalidResponse)
	}
	return out.Token, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context, creds models.Credentials) (*models.Account, error) {
	method, path, body := c.scheme.profileRequest(creds)

	var out accountDTO
	cl := call{op: "fetch_profile", method: method, path: path, body: body, out: &out}
	if body == nil {
		cl.auth = &creds
	}
	if err := c.do(ctx, cl); err != nil {
		return nil, err
	}
	return out.account(creds.Email)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, creds models.Credentials, upd models.ProfileUpdate) (string, error) {
	body := map[string]any{
		"new_email":                upd.Email,
		"new_reminder_time":        upd.ReminderTime,
		"new_timezone":             upd.Timezone,
		"new_telegram_bot_api_key": upd.TelegramBotAPIKey,
		"new_telegram_user_id":     upd.TelegramUserID,
	}
	if upd.NewPassword != "" {
		body["new_password"] = upd.NewPassword
	}

	var out successDTO
	err := c.do(ctx, call{op: "update_profile", method: http.MethodPut, path: "/modify-user", auth: &creds, body: body, out: &out})
	if err != nil {
		return "", err
	}
	if err := out.check(); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, creds models.Credentials) error {
	cl := call{op: "delete_account", method: http.MethodDelete, path: "/delete-user", out: &successDTO{}}
	if body := c.scheme.accountBody(creds); body != nil {
		cl.body = body
	} else {
		cl.auth = &creds
	}
	if err := c.do(ctx, cl); err != nil {
		return err
	}
	return cl.out.(*successDTO).check()
}

func (c *HTTPClient) CheckReminders(ctx context.Context, creds models.Credentials) error {
	var out successDTO
	err := c.do(ctx, call{op: "check_reminders", method: http.MethodPost, path: "/check-birthdays", auth: &creds, out: &out})
	if err != nil {
		return err
	}
	return out.check()
}

func (c *HTTPClient) AddBirthday(ctx context.Context, creds models.Credentials, name, date string) (models.Birthday, error) {
	var out birthdayDTO
	err := c.do(ctx, call{
		op: "add_birthday", method: http.MethodPost, path: "/add-birthday", auth: &creds,
		body: map[string]any{"name": name, "date": date},
		out:  &out,
	})
	if err != nil {
		return models.Birthday{}, err
	}
	if err := out.validate(); err != nil {
		return models.Birthday{}, err
	}
	return out.model(), nil
}

func (c *HTTPClient) UpdateBirthday(ctx context.Context, creds models.Credentials, b models.Birthday) error {
	var out successDTO
	err := c.do(ctx, call{op: "update_birthday", method: http.MethodPut, path: "/modify-birthday", auth: &creds, body: birthdayBody(b), out: &out})
	if err != nil {
		return err
	}
	return out.check()
}

func (c *HTTPClient) DeleteBirthday(ctx context.Context, creds models.Credentials, b models.Birthday) error {
	var out successDTO
	err := c.do(ctx, call{op: "delete_birthday", method: http.MethodDelete, path: "/delete-birthday", auth: &creds, body: birthdayBody(b), out: &out})
	if err != nil {
		return err
	}
	return out.check()
}
