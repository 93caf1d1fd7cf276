// Package tasks keeps the signed-in user's tasks and categories in memory
// and derives filtered views and statistics from them.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/session"
	"taskflow/internal/ui"
)

// Requester issues authorized API calls. *session.Store satisfies it.
type Requester interface {
	Do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error)
	// Current reports whether a response still belongs to the held
	// credential.
	Current(resp *http.Response) bool
}

const (
	tasksPath      = "/api/tasks"
	categoriesPath = "/api/categories"
	calendarPath   = "/api/calendar/tasks"
)

// Collection caches the task and category sets fetched from the API.
type Collection struct {
	mu         sync.RWMutex
	tasks      []models.Task
	categories []models.Category

	requester Requester
	notifier  ui.Notifier
	confirmer ui.Confirmer
	logger    *slog.Logger
}

// New builds an empty collection.
func New(requester Requester, notifier ui.Notifier, confirmer ui.Confirmer, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{
		requester: requester,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    logger,
	}
}

// LoadTasks fetches the task set and replaces the cached one. On failure the
// user is notified, the cache is emptied and an empty slice is returned with
// the error.
func (c *Collection) LoadTasks(ctx context.Context) ([]models.Task, error) {
	var fetched []models.Task
	err := c.fetch(ctx, tasksPath, &fetched, func() {
		if fetched == nil {
			fetched = []models.Task{}
		}
		c.tasks = fetched
	})
	if err != nil {
		c.fail("load tasks", err, "Could not load tasks")
		c.mu.Lock()
		c.tasks = nil
		c.mu.Unlock()
		return []models.Task{}, err
	}
	return cloneTasks(fetched), nil
}

// LoadCategories fetches the category set, with the same contract as
// LoadTasks.
func (c *Collection) LoadCategories(ctx context.Context) ([]models.Category, error) {
	var fetched []models.Category
	err := c.fetch(ctx, categoriesPath, &fetched, func() {
		if fetched == nil {
			fetched = []models.Category{}
		}
		c.categories = fetched
	})
	if err != nil {
		c.fail("load categories", err, "Could not load categories")
		c.mu.Lock()
		c.categories = nil
		c.mu.Unlock()
		return []models.Category{}, err
	}
	return append([]models.Category{}, fetched...), nil
}

// Load fetches tasks and categories in parallel and returns the stats of the
// new task set. A failed side degrades to empty without aborting the other.
func (c *Collection) Load(ctx context.Context) models.Stats {
	var g errgroup.Group
	g.Go(func() error {
		_, _ = c.LoadTasks(ctx)
		return nil
	})
	g.Go(func() error {
		_, _ = c.LoadCategories(ctx)
		return nil
	})
	_ = g.Wait()
	return c.Stats()
}

// CreateTask posts a new task. It does not reload the collection.
func (c *Collection) CreateTask(ctx context.Context, input models.TaskInput) bool {
	if err := c.send(ctx, http.MethodPost, tasksPath, input); err != nil {
		c.fail("create task", err, "Could not create task")
		return false
	}
	c.notify("Task created", ui.SeveritySuccess)
	return true
}

// UpdateTask sends a partial update for task id.
func (c *Collection) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) bool {
	if err := c.send(ctx, http.MethodPut, taskPath(id), patch); err != nil {
		c.fail("update task", err, "Could not update task")
		return false
	}
	c.notify("Task updated", ui.SeveritySuccess)
	return true
}

// ToggleTask flips the completion flag of a cached task on the server and,
// once the server accepted it, in place in the cache.
func (c *Collection) ToggleTask(ctx context.Context, id int64) bool {
	c.mu.RLock()
	idx := c.indexOf(id)
	var completed bool
	if idx >= 0 {
		completed = !c.tasks[idx].Completed
	}
	c.mu.RUnlock()

	if idx < 0 {
		c.notify(fmt.Sprintf("Task %d not found", id), ui.SeverityWarning)
		return false
	}
	if !c.UpdateTask(ctx, id, models.TaskPatch{Completed: &completed}) {
		return false
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.tasks[i].Completed = completed
	}
	c.mu.Unlock()
	return true
}

// DeleteTask asks for confirmation and deletes task id. A declined or
// failed confirmation returns false without touching the network.
func (c *Collection) DeleteTask(ctx context.Context, id int64) bool {
	if c.confirmer == nil {
		return false
	}
	ok, err := c.confirmer.Confirm(ctx, "Are you sure you want to delete this task?")
	if err != nil {
		c.logger.Warn("confirmation failed", slog.Int64("task_id", id), slog.String("error", err.Error()))
		return false
	}
	if !ok {
		return false
	}

	if err := c.send(ctx, http.MethodDelete, taskPath(id), nil); err != nil {
		c.fail("delete task", err, "Could not delete task")
		return false
	}
	c.notify("Task deleted", ui.SeveritySuccess)
	return true
}

// CreateCategory adds a label and appends it to the cached set. An empty
// colour lets the server pick one.
func (c *Collection) CreateCategory(ctx context.Context, name, color string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		c.notify("Category name is required", ui.SeverityWarning)
		return false
	}

	var created models.Category
	if err := c.exchange(ctx, http.MethodPost, categoriesPath, map[string]string{"name": name, "color": color}, &created); err != nil {
		c.fail("create category", err, "Could not create category")
		return false
	}

	c.mu.Lock()
	c.categories = append(c.categories, created)
	c.mu.Unlock()
	c.notify("Category created", ui.SeveritySuccess)
	return true
}

// Calendar fetches the dated tasks as calendar events. It is not cached.
func (c *Collection) Calendar(ctx context.Context) []models.CalendarEvent {
	var events []models.CalendarEvent
	if err := c.getJSON(ctx, calendarPath, &events); err != nil {
		c.fail("load calendar", err, "Could not load calendar")
		return []models.CalendarEvent{}
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	return events
}

// Stats recomputes the counters from the cached task set.
func (c *Collection) Stats() models.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ComputeStats(c.tasks)
}

// Filter returns the cached tasks matching f.
func (c *Collection) Filter(f models.Filter) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FilterTasks(c.tasks, f)
}

// Tasks returns a copy of the cached task set.
func (c *Collection) Tasks() []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTasks(c.tasks)
}

// Categories returns a copy of the cached category set.
func (c *Collection) Categories() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Category(nil), c.categories...)
}

// Replace swaps the cached task set, for callers that already hold one.
func (c *Collection) Replace(tasks []models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = cloneTasks(tasks)
}

// fetch decodes path into dst and runs commit with c.mu held, unless the
// credential changed while the body was read.
func (c *Collection) fetch(ctx context.Context, path string, dst any, commit func()) error {
	resp, err := c.requester.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if err := session.DecodeJSON(resp, dst); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.requester.Current(resp) {
		return staleResponse(path)
	}
	commit()
	return nil
}

func (c *Collection) getJSON(ctx context.Context, path string, dst any) error {
	return c.exchange(ctx, http.MethodGet, path, nil, dst)
}

func (c *Collection) send(ctx context.Context, method, path string, body any) error {
	return c.exchange(ctx, method, path, body, nil)
}

func (c *Collection) exchange(ctx context.Context, method, path string, body, dst any) error {
	resp, err := c.requester.Do(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	if err := session.DecodeJSON(resp, dst); err != nil {
		return err
	}
	if !c.requester.Current(resp) {
		return staleResponse(path)
	}
	return nil
}

func staleResponse(path string) error {
	return fmt.Errorf("%w: signed out while reading %s", apperr.ErrSessionExpired, path)
}

func (c *Collection) fail(op string, err error, fallback string) {
	c.logger.Error(op+" failed", slog.String("kind", apperr.KindOf(err).String()), slog.String("error", err.Error()))
	c.notify(apperr.Notice(err, fallback), ui.SeverityError)
}

func (c *Collection) notify(message string, severity ui.Severity) {
	if c.notifier != nil {
		c.notifier.Notify(message, severity)
	}
}

// indexOf must be called with c.mu held.
func (c *Collection) indexOf(id int64) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func taskPath(id int64) string {
	return fmt.Sprintf("%s/%d", tasksPath, id)
}

func cloneTasks(in []models.Task) []models.Task {
	if len(in) == 0 {
		return []models.Task{}
	}
	return append([]models.Task(nil), in...)
}
