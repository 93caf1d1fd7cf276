package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/apperr"
	"taskflow/internal/ui"
)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) NavigateTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type failingKV struct {
	*MemoryStore
	failKey string
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func newTestStore(t *testing.T, kv KeyValueStore, baseURL string) (*Store, *recordingNavigator) {
	t.Helper()
	nav := &recordingNavigator{}
	store, err := New(context.Background(), kv, nav, WithBaseURL(baseURL))
	require.NoError(t, err)
	return store, nav
}

func TestSetAuthAndClearAuth(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	store, _ := newTestStore(t, kv, "")

	assert.False(t, store.IsAuthenticated())

	require.NoError(t, store.SetAuth(ctx, "abc", Identity{"id": 1, "name": "Ana"}))
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "abc", store.Token())
	assert.Equal(t, "Ana", store.Identity().Name())

	token, ok, _ := kv.Get(ctx, KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
	_, ok, _ = kv.Get(ctx, KeyUser)
	assert.True(t, ok)

	require.NoError(t, store.ClearAuth(ctx))
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Identity())

	_, ok, _ = kv.Get(ctx, KeyToken)
	assert.False(t, ok)
	_, ok, _ = kv.Get(ctx, KeyUser)
	assert.False(t, ok)

	// clearing twice is fine
	require.NoError(t, store.ClearAuth(ctx))
}

func TestSetAuthRollsBackOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{MemoryStore: NewMemoryStore(), failKey: KeyToken}
	store, _ := newTestStore(t, kv, "")

	err := store.SetAuth(ctx, "abc", Identity{"id": 1})
	require.Error(t, err)
	assert.False(t, store.IsAuthenticated())

	_, ok, _ := kv.Get(ctx, KeyUser)
	assert.False(t, ok, "identity must not outlive a failed token write")
}

func TestNewRestoresPersistedCredential(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	require.NoError(t, kv.Set(ctx, KeyToken, "persisted"))
	require.NoError(t, kv.Set(ctx, KeyUser, `{"id":7,"email":"ana@example.com"}`))

	store, _ := newTestStore(t, kv, "")
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "ana@example.com", store.Identity().Email())
}

func TestNewClearsHalfCredential(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"token without user", KeyToken, "orphan"},
		{"user without token", KeyUser, `{"id":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := NewMemoryStore()
			require.NoError(t, kv.Set(ctx, tt.key, tt.val))

			store, _ := newTestStore(t, kv, "")
			assert.False(t, store.IsAuthenticated())

			_, ok, _ := kv.Get(ctx, tt.key)
			assert.False(t, ok)
		})
	}
}

func TestDoSetsHeaders(t *testing.T) {
	var got http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	store, _ := newTestStore(t, NewMemoryStore(), srv.URL)
	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))

	header := http.Header{}
	header.Set("X-Request-Id", "r-1")
	resp, err := store.Do(ctx, http.MethodPost, "/api/tasks", map[string]any{"title": "write"}, header)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "r-1", got.Get("X-Request-Id"))
	assert.Equal(t, "write", gotBody["title"])
}

func TestDoCallerHeadersWinOverDefaults(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	ctx := context.Background()
	store, _ := newTestStore(t, NewMemoryStore(), srv.URL)
	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))

	header := http.Header{}
	header.Set("Content-Type", "text/csv")
	header.Set("Authorization", "Basic abc")
	resp, err := store.Do(ctx, http.MethodPost, "/api/tasks", nil, header)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "text/csv", got.Get("Content-Type"))
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
}

func TestCurrentTracksCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx := context.Background()
	store, _ := newTestStore(t, NewMemoryStore(), srv.URL)

	anonymous, err := store.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
	require.NoError(t, err)
	anonymous.Body.Close()

	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))
	resp, err := store.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, store.Current(resp))

	require.NoError(t, store.ClearAuth(ctx))
	assert.False(t, store.Current(resp))
	assert.True(t, store.Current(anonymous))
}

func TestDoWithoutTokenOmitsAuthorization(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	store, _ := newTestStore(t, NewMemoryStore(), srv.URL)
	resp, err := store.Do(context.Background(), http.MethodGet, "/api/tasks", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, got.Get("Authorization"))
}

func TestDoUnauthorizedExpiresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	kv := NewMemoryStore()
	store, nav := newTestStore(t, kv, srv.URL)
	require.NoError(t, store.SetAuth(ctx, "stale", Identity{"id": 1}))

	resp, err := store.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, apperr.ErrSessionExpired)
	assert.Equal(t, apperr.KindAuthExpired, apperr.KindOf(err))

	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Token())
	_, ok, _ := kv.Get(ctx, KeyToken)
	assert.False(t, ok)
	assert.Equal(t, []string{ui.PathLogin}, nav.Paths())
}

func TestDoNetworkErrorKeepsCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	ctx := context.Background()
	store, nav := newTestStore(t, NewMemoryStore(), url)
	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))

	_, err := store.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
	require.Error(t, err)

	var nerr *apperr.NetworkError
	assert.ErrorAs(t, err, &nerr)
	assert.True(t, store.IsAuthenticated())
	assert.Empty(t, nav.Paths())
}

func TestDoDropsResponseAfterLogout(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		_, _ = w.Write([]byte(`[{"id":1,"title":"ghost"}]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	store, _ := newTestStore(t, NewMemoryStore(), srv.URL)
	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))

	type result struct {
		resp *http.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := store.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
		done <- result{resp, err}
	}()

	<-arrived
	require.NoError(t, store.ClearAuth(ctx))
	close(release)

	r := <-done
	assert.Nil(t, r.resp)
	assert.ErrorIs(t, r.err, apperr.ErrSessionExpired)
	assert.False(t, store.IsAuthenticated())
}

func TestConcurrentUnauthorizedIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	store, nav := newTestStore(t, NewMemoryStore(), srv.URL)
	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Do(ctx, http.MethodGet, "/api/tasks", nil, nil)
			assert.ErrorIs(t, err, apperr.ErrSessionExpired)
		}()
	}
	wg.Wait()

	assert.False(t, store.IsAuthenticated())
	assert.Len(t, nav.Paths(), 4)
}

func TestRequireAuth(t *testing.T) {
	ctx := context.Background()
	store, nav := newTestStore(t, NewMemoryStore(), "")

	assert.True(t, store.RequireAuth(ui.PathLogin))
	assert.True(t, store.RequireAuth(ui.PathRegister))
	assert.Empty(t, nav.Paths())

	assert.False(t, store.RequireAuth(ui.PathTasks))
	assert.Equal(t, []string{ui.PathLogin}, nav.Paths())

	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))
	assert.True(t, store.RequireAuth(ui.PathTasks))
	assert.Len(t, nav.Paths(), 1)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	store, nav := newTestStore(t, NewMemoryStore(), "")
	require.NoError(t, store.SetAuth(ctx, "tok", Identity{"id": 1}))

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, []string{ui.PathLogin}, nav.Paths())
}
