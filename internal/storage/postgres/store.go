// Package postgres implements storage.Store on PostgreSQL through pgx. It is
// selected when DATABASE_URL is configured.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// Store is a pgxpool-backed storage.Store.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open connects to databaseURL and runs the migrations.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("empty database url")
	}
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('high', 'medium', 'low')),
            due_date DATE,
            completed BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS categories (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            color TEXT NOT NULL DEFAULT '#4361ee',
            UNIQUE (user_id, name)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const userColumns = `id, name, email, password_hash, is_admin, created_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a new account. Emails are unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	row := s.pool.QueryRow(ctx, `INSERT INTO users(name, email, password_hash, is_admin) VALUES($1, $2, $3, $4) RETURNING `+userColumns,
		strings.TrimSpace(u.Name), strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.IsAdmin)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("insert user: %w", storage.ErrConflict)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// GetUser fetches an account by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches an account by its (case-insensitive) email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers returns every account, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const taskColumns = `id, title, description, category, priority, due_date::text, completed, created_at`

const taskOrder = `ORDER BY due_date ASC NULLS LAST,
        CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, id`

func scanTask(row pgx.Row, extra ...any) (models.Task, error) {
	var (
		t        models.Task
		priority string
		due      *string
	)
	dest := append([]any{&t.ID, &t.Title, &t.Description, &t.Category, &priority, &due, &t.Completed, &t.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Task{}, err
	}
	t.Priority = models.Priority(priority)
	if due != nil {
		t.DueDate = storage.ParseDueDate(sql.NullString{String: *due, Valid: true})
	}
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListTasks returns the tasks of a user.
func (s *Store) ListTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 `+taskOrder, userID)
}

// ListDueTasks returns the tasks of a user that have a due date.
func (s *Store) ListDueTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND due_date IS NOT NULL ORDER BY due_date ASC, id`, userID)
}

// ListAllTasks returns every task with its owner, newest first.
func (s *Store) ListAllTasks(ctx context.Context) ([]models.AdminTask, error) {
	rows, err := s.pool.Query(ctx, `SELECT t.id, t.title, t.description, t.category, t.priority, t.due_date::text, t.completed, t.created_at, u.name, u.email
        FROM tasks t JOIN users u ON t.user_id = u.id ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.AdminTask{}
	for rows.Next() {
		var at models.AdminTask
		t, err := scanTask(rows, &at.UserName, &at.UserEmail)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		at.Task = t
		tasks = append(tasks, at)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task for a user.
func (s *Store) CreateTask(ctx context.Context, userID int64, in models.TaskInput) (models.Task, error) {
	in, err := storage.NormalizeInput(in)
	if err != nil {
		return models.Task{}, err
	}

	row := s.pool.QueryRow(ctx, `INSERT INTO tasks(user_id, title, description, category, priority, due_date)
        VALUES($1, $2, $3, $4, $5, $6::date) RETURNING `+taskColumns,
		userID, in.Title, in.Description, in.Category, string(in.Priority), dueArg(in.DueDate))
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// GetTask retrieves a task owned by userID.
func (s *Store) GetTask(ctx context.Context, userID, id int64) (models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update inside a transaction.
func (s *Store) UpdateTask(ctx context.Context, userID, id int64, patch models.TaskPatch) (models.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	next := storage.ApplyPatch(current, patch)

	updated, err := scanTask(tx.QueryRow(ctx, `UPDATE tasks SET title = $1, description = $2, category = $3, priority = $4, due_date = $5::date, completed = $6
        WHERE id = $7 AND user_id = $8 RETURNING `+taskColumns,
		next.Title, next.Description, next.Category, string(next.Priority), dueArg(next.DueDate), next.Completed, id, userID))
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Task{}, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// DeleteTask removes a task owned by userID.
func (s *Store) DeleteTask(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("task %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListCategories returns the categories of a user by name.
func (s *Store) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, color FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory persists a new category with optional color.
func (s *Store) CreateCategory(ctx context.Context, userID int64, name, color string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("category name must not be empty")
	}
	if color == "" {
		color = storage.PaletteColor()
	}

	c := models.Category{Name: name, Color: color}
	err := s.pool.QueryRow(ctx, `INSERT INTO categories(user_id, name, color) VALUES($1, $2, $3) RETURNING id`, userID, name, color).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Category{}, fmt.Errorf("insert category: %w", storage.ErrConflict)
		}
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// Counts returns the global totals for the admin dashboard.
func (s *Store) Counts(ctx context.Context) (models.AdminStats, error) {
	var st models.AdminStats
	err := s.pool.QueryRow(ctx, `SELECT
            (SELECT COUNT(*) FROM users WHERE NOT is_admin),
            (SELECT COUNT(*) FROM tasks),
            (SELECT COUNT(*) FROM categories)`).Scan(&st.TotalUsers, &st.TotalTasks, &st.TotalCategories)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("count rows: %w", err)
	}
	return st, nil
}

func dueArg(d *models.Date) *string {
	v := storage.DueDateValue(d)
	if !v.Valid {
		return nil
	}
	return &v.String
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
