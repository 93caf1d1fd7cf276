package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"taskflow/internal/admin"
	"taskflow/internal/config"
	"taskflow/internal/session"
	"taskflow/internal/storage/redisstore"
	"taskflow/internal/storage/sqlite"
	"taskflow/internal/tasks"
	"taskflow/internal/ui"
)

// openKV opens the configured session backend. The returned func releases
// it.
func (a *app) openKV(ctx context.Context) (session.KeyValueStore, func(), error) {
	noop := func() {}
	if a.kv != nil {
		return a.kv, noop, nil
	}

	c := a.cfg.Client
	switch c.SessionBackend {
	case config.BackendMemory:
		return session.NewMemoryStore(), noop, nil
	case config.BackendRedis:
		kv, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
			TTL:      c.SessionTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv, a.closer("redis session store", kv.Close), nil
	default:
		kv, err := sqlite.OpenKV(c.SessionPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return kv, a.closer("sqlite session store", kv.Close), nil
	}
}

func (a *app) closer(what string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			a.logger.Warn("close failed", slog.String("what", what), slog.String("error", err.Error()))
		}
	}
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.Client.Timeout}
}

// openSession restores the signed-in user, if any.
func (a *app) openSession(ctx context.Context) (*session.Store, func(), error) {
	kv, release, err := a.openKV(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := session.New(ctx, kv, a.term,
		session.WithBaseURL(a.cfg.Client.APIURL),
		session.WithHTTPClient(a.httpClient()),
		session.WithLogger(a.logger),
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	return store, release, nil
}

// openCollection is the load hook of every task view: it refuses to go on
// without a credential.
func (a *app) openCollection(ctx context.Context) (*tasks.Collection, func(), error) {
	store, release, err := a.openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !store.RequireAuth(ui.PathTasks) {
		release()
		return nil, nil, errNotSignedIn
	}
	return tasks.New(store, a.term, a.term, a.logger), release, nil
}

func (a *app) openAdmin(ctx context.Context) (*admin.Client, func(), error) {
	kv, release, err := a.openKV(ctx)
	if err != nil {
		return nil, nil, err
	}
	client, err := admin.New(ctx, a.cfg.Client.APIURL, kv, a.term, a.term,
		admin.WithTimeout(a.cfg.Client.Timeout),
		admin.WithLogger(a.logger),
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	return client, release, nil
}
