// Package admin talks to the administrator surface of the backend. Admin
// access is a cookie session, kept apart from the user's bearer token.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/session"
	"taskflow/internal/ui"
)

const (
	// CookieName is the session cookie set by /admin/login.
	CookieName = "taskflow_admin"
	// KeyAdminSession is where the cookie value is persisted.
	KeyAdminSession = "admin_session"
)

// Client holds the admin cookie session.
type Client struct {
	mu      sync.Mutex
	base    *url.URL
	http    *http.Client
	kv      session.KeyValueStore
	notify  ui.Notifier
	nav     ui.Navigator
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New builds a client for baseURL and restores a persisted admin cookie.
func New(ctx context.Context, baseURL string, kv session.KeyValueStore, notifier ui.Notifier, nav ui.Navigator, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if kv == nil {
		kv = session.NewMemoryStore()
	}

	c := &Client{
		base:    base,
		kv:      kv,
		notify:  notifier,
		nav:     nav,
		logger:  slog.Default(),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.resetJar(); err != nil {
		return nil, err
	}

	value, ok, err := kv.Get(ctx, KeyAdminSession)
	if err != nil {
		return nil, fmt.Errorf("read admin session: %w", err)
	}
	if ok && value != "" {
		c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: CookieName, Value: value, Path: "/"}})
	}
	return c, nil
}

func (c *Client) resetJar() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}
	c.mu.Lock()
	c.http = &http.Client{Jar: jar, Timeout: c.timeout}
	c.mu.Unlock()
	return nil
}

// LoggedIn reports whether an admin cookie is held.
func (c *Client) LoggedIn() bool {
	return c.cookieValue() != ""
}

func (c *Client) cookieValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == CookieName {
			return ck.Value
		}
	}
	return ""
}

// Login opens an admin session with the shared admin password.
func (c *Client) Login(ctx context.Context, password string) bool {
	resp, err := c.do(ctx, http.MethodPost, "admin/login", map[string]string{"password": password})
	if err != nil {
		c.fail("admin login", err, "Connection error")
		return false
	}
	if err := session.DecodeJSON(resp, nil); err != nil {
		c.fail("admin login", err, "Wrong password")
		return false
	}

	value := c.cookieValue()
	if value == "" {
		c.fail("admin login", &apperr.APIError{Status: resp.StatusCode, Message: "server did not open a session"}, "")
		return false
	}
	if err := c.kv.Set(ctx, KeyAdminSession, value); err != nil {
		c.logger.Warn("persist admin session failed", slog.String("error", err.Error()))
	}
	c.emit("Admin access granted", ui.SeveritySuccess)
	return true
}

// Logout closes the admin session on the server and locally, then returns
// to the admin view.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "admin/logout", nil)
	if err == nil {
		_ = session.DecodeJSON(resp, nil)
	} else {
		c.logger.Warn("admin logout request failed", slog.String("error", err.Error()))
	}

	if err := c.forget(ctx); err != nil {
		return err
	}
	if c.nav != nil {
		c.nav.NavigateTo(ui.PathAdmin)
	}
	return nil
}

func (c *Client) forget(ctx context.Context) error {
	if err := c.resetJar(); err != nil {
		return err
	}
	if err := c.kv.Delete(ctx, KeyAdminSession); err != nil {
		return fmt.Errorf("clear admin session: %w", err)
	}
	return nil
}

// Users lists every account. Failures are reported and yield an empty list.
func (c *Client) Users(ctx context.Context) []models.User {
	var users []models.User
	if err := c.getJSON(ctx, "api/admin/users", &users); err != nil {
		c.fail("list users", err, "Could not load users")
		return []models.User{}
	}
	return users
}

// Stats returns the global counters, or nil on failure.
func (c *Client) Stats(ctx context.Context) *models.AdminStats {
	var stats models.AdminStats
	if err := c.getJSON(ctx, "api/admin/stats", &stats); err != nil {
		c.fail("load admin stats", err, "Could not load statistics")
		return nil
	}
	return &stats
}

// AllTasks lists the tasks of every user.
func (c *Client) AllTasks(ctx context.Context) []models.AdminTask {
	var tasks []models.AdminTask
	if err := c.getJSON(ctx, "api/admin/all-tasks", &tasks); err != nil {
		c.fail("list all tasks", err, "Could not load tasks")
		return []models.AdminTask{}
	}
	return tasks
}

// Dashboard is everything the admin view shows.
type Dashboard struct {
	Users []models.User      `json:"users"`
	Tasks []models.AdminTask `json:"tasks"`
	Stats *models.AdminStats `json:"stats"`
}

// Dashboard loads users, tasks and stats in parallel. Each part degrades on
// its own.
func (c *Client) Dashboard(ctx context.Context) Dashboard {
	var (
		d Dashboard
		g errgroup.Group
	)
	g.Go(func() error {
		d.Users = c.Users(ctx)
		return nil
	})
	g.Go(func() error {
		d.Tasks = c.AllTasks(ctx)
		return nil
	})
	g.Go(func() error {
		d.Stats = c.Stats(ctx)
		return nil
	})
	_ = g.Wait()
	return d
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		_ = session.DecodeJSON(resp, nil)
		if err := c.forget(ctx); err != nil {
			c.logger.Error("clear admin session failed", slog.String("error", err.Error()))
		}
		return apperr.ErrSessionExpired
	}
	return session.DecodeJSON(resp, dst)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		buf = bytes.NewReader(payload)
	} else {
		buf = bytes.NewReader(nil)
	}

	target := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	client := c.http
	c.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: method + " /" + path, Err: err}
	}
	return resp, nil
}

func (c *Client) fail(op string, err error, fallback string) {
	c.logger.Error(op+" failed", slog.String("kind", apperr.KindOf(err).String()), slog.String("error", err.Error()))
	msg := apperr.Notice(err, fallback)
	if apperr.KindOf(err) == apperr.KindAuthExpired {
		msg = "Admin session expired, please sign in again"
	}
	c.emit(msg, ui.SeverityError)
}

func (c *Client) emit(message string, severity ui.Severity) {
	if c.notify != nil {
		c.notify.Notify(message, severity)
	}
}
