package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/session"
	"taskflow/internal/ui"
)

type notice struct {
	message  string
	severity ui.Severity
}

type recorder struct {
	mu      sync.Mutex
	notices []notice
	paths   []string
}

func (r *recorder) Notify(message string, severity ui.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{message, severity})
}

func (r *recorder) NavigateTo(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) last() notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notice{}
	}
	return r.notices[len(r.notices)-1]
}

// fakeAdmin mimics the admin endpoints with a single valid cookie.
func fakeAdmin(t *testing.T, password, cookie string) *httptest.Server {
	t.Helper()
	authorized := func(r *http.Request) bool {
		c, err := r.Cookie(CookieName)
		return err == nil && c.Value == cookie
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != password {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid password"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: cookie, Path: "/"})
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1})
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]models.User{{ID: 1, Name: "Ana", Email: "ana@x.io"}})
	})
	mux.HandleFunc("/api/admin/stats", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(models.AdminStats{TotalUsers: 1, TotalTasks: 2, TotalCategories: 3})
	})
	mux.HandleFunc("/api/admin/all-tasks", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginPersistsCookie(t *testing.T) {
	ctx := context.Background()
	srv := fakeAdmin(t, "s3cret", "cookie-1")
	kv := session.NewMemoryStore()
	rec := &recorder{}

	client, err := New(ctx, srv.URL, kv, rec, rec)
	require.NoError(t, err)
	assert.False(t, client.LoggedIn())

	require.True(t, client.Login(ctx, "s3cret"))
	assert.True(t, client.LoggedIn())
	assert.Equal(t, ui.SeveritySuccess, rec.last().severity)

	stored, ok, err := kv.Get(ctx, KeyAdminSession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cookie-1", stored)

	// A fresh client picks the session up from the store.
	again, err := New(ctx, srv.URL, kv, rec, rec)
	require.NoError(t, err)
	assert.True(t, again.LoggedIn())
	users := again.Users(ctx)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	srv := fakeAdmin(t, "s3cret", "cookie-1")
	rec := &recorder{}

	client, err := New(ctx, srv.URL, nil, rec, rec)
	require.NoError(t, err)

	assert.False(t, client.Login(ctx, "nope"))
	assert.False(t, client.LoggedIn())
	assert.Equal(t, notice{"Invalid password", ui.SeverityError}, rec.last())
}

func TestDashboardDegradesPerPart(t *testing.T) {
	ctx := context.Background()
	srv := fakeAdmin(t, "s3cret", "cookie-1")
	rec := &recorder{}

	client, err := New(ctx, srv.URL, nil, rec, rec)
	require.NoError(t, err)
	require.True(t, client.Login(ctx, "s3cret"))

	d := client.Dashboard(ctx)
	assert.Len(t, d.Users, 1)
	require.NotNil(t, d.Stats)
	assert.Equal(t, int64(3), d.Stats.TotalCategories)
	assert.NotNil(t, d.Tasks)
	assert.Empty(t, d.Tasks)
}

func TestExpiredCookieIsForgotten(t *testing.T) {
	ctx := context.Background()
	srv := fakeAdmin(t, "s3cret", "cookie-1")
	kv := session.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, KeyAdminSession, "stale"))
	rec := &recorder{}

	client, err := New(ctx, srv.URL, kv, rec, rec)
	require.NoError(t, err)
	assert.True(t, client.LoggedIn())

	assert.Nil(t, client.Stats(ctx))
	assert.False(t, client.LoggedIn())
	_, ok, _ := kv.Get(ctx, KeyAdminSession)
	assert.False(t, ok)
	assert.Equal(t, "Admin session expired, please sign in again", rec.last().message)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	srv := fakeAdmin(t, "s3cret", "cookie-1")
	kv := session.NewMemoryStore()
	rec := &recorder{}

	client, err := New(ctx, srv.URL, kv, rec, rec)
	require.NoError(t, err)
	require.True(t, client.Login(ctx, "s3cret"))

	require.NoError(t, client.Logout(ctx))
	assert.False(t, client.LoggedIn())
	_, ok, _ := kv.Get(ctx, KeyAdminSession)
	assert.False(t, ok)
	assert.Equal(t, []string{ui.PathAdmin}, rec.paths)
}
