package server_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/admin"
	"taskflow/internal/auth"
	"taskflow/internal/models"
	"taskflow/internal/server"
	"taskflow/internal/session"
	"taskflow/internal/storage/sqlite"
	"taskflow/internal/tasks"
	"taskflow/internal/ui"
	"taskflow/internal/validate"
)

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "taskflow.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tokens := auth.NewTokenManager(auth.DefaultTokenConfig("roundtrip"))
	srv := server.New(store, tokens, server.Config{AdminPassword: "admin-pass"}, nil)
	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientAgainstBackend(t *testing.T) {
	ctx := context.Background()
	ts := startBackend(t)

	var out bytes.Buffer
	term := ui.NewTerminal(strings.NewReader(""), &out, ui.WithAssumeYes(true))
	kv := session.NewMemoryStore()

	sess, err := session.New(ctx, kv, term, session.WithBaseURL(ts.URL))
	require.NoError(t, err)
	assert.False(t, sess.RequireAuth(ui.PathTasks))
	assert.Equal(t, ui.PathLogin, term.Location())

	require.NoError(t, sess.Register(ctx, "Ana", "ana@example.com", "secret1"))
	result, err := sess.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "/tasks", result.Redirect)
	assert.Equal(t, "Ana", sess.Identity().Name())

	coll := tasks.New(sess, term, term, nil)
	for _, form := range []validate.TaskForm{
		{Title: "Write report", Priority: "high", Category: "Work", DueDate: "2025-02-01"},
		{Title: "Buy milk", Category: "Home"},
		{Title: "Call mum", Priority: "low"},
	} {
		input, err := validate.Task(form)
		require.NoError(t, err)
		require.True(t, coll.CreateTask(ctx, input))
	}

	stats := coll.Load(ctx)
	assert.Equal(t, models.Stats{Total: 3, Completed: 0, Pending: 3, Productivity: 0}, stats)

	work := coll.Filter(models.Filter{Category: "Work"})
	require.Len(t, work, 1)
	require.True(t, coll.ToggleTask(ctx, work[0].ID))
	assert.Equal(t, 1, coll.Stats().Completed)

	stats = coll.Load(ctx)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 33, stats.Productivity)

	pending := coll.Filter(models.Filter{Status: models.StatusPending})
	require.Len(t, pending, 2)
	require.True(t, coll.DeleteTask(ctx, pending[0].ID))
	assert.Equal(t, 2, coll.Load(ctx).Total)

	// A token the backend no longer accepts expires the session.
	require.NoError(t, sess.SetAuth(ctx, "not-a-token", session.Identity{"name": "Ana"}))
	_, err = coll.LoadTasks(ctx)
	require.Error(t, err)
	assert.False(t, sess.IsAuthenticated())
	assert.Equal(t, ui.PathLogin, term.Location())
	assert.Contains(t, out.String(), "Session expired, please sign in again")

	adm, err := admin.New(ctx, ts.URL, kv, term, term)
	require.NoError(t, err)
	require.True(t, adm.Login(ctx, "admin-pass"))
	d := adm.Dashboard(ctx)
	assert.Len(t, d.Users, 1)
	assert.Len(t, d.Tasks, 2)
	require.NotNil(t, d.Stats)
	assert.Equal(t, int64(2), d.Stats.TotalTasks)

	require.NoError(t, adm.Logout(ctx))
	assert.Equal(t, ui.PathAdmin, term.Location())
	assert.Nil(t, adm.Stats(ctx))
}
