package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"taskflow/internal/models"
	"taskflow/internal/storage"
)

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	conn, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func openDB(dbPath string) (*sql.DB, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	return conn, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            is_admin INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            category TEXT NOT NULL DEFAULT '',
            priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('high', 'medium', 'low')),
            due_date TEXT,
            completed INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
        );`,
		`CREATE TABLE IF NOT EXISTS categories (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            color TEXT NOT NULL DEFAULT '#4361ee',
            FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
            UNIQUE(user_id, name)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_due ON tasks(user_id, due_date);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

const userColumns = `id, name, email, password_hash, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a new account. Emails are unique.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users(name, email, password_hash, is_admin) VALUES(?, ?, ?, ?)`,
		strings.TrimSpace(u.Name), strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("insert user: %w", storage.ErrConflict)
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches an account by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches an account by its (case-insensitive) email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %q: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers returns every account, newest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
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

const taskColumns = `id, title, description, category, priority, due_date, completed, created_at`

// Tasks with a due date come first, soonest first, then by urgency.
const taskOrder = `ORDER BY due_date IS NULL, due_date ASC,
        CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, id`

func scanTask(row interface{ Scan(...any) error }, extra ...any) (models.Task, error) {
	var (
		t   models.Task
		due sql.NullString
	)
	dest := append([]any{&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &due, &t.Completed, &t.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Task{}, err
	}
	t.DueDate = storage.ParseDueDate(due)
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? `+taskOrder, userID)
}

// ListDueTasks returns the tasks of a user that have a due date.
func (s *Store) ListDueTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND due_date IS NOT NULL ORDER BY due_date ASC, id`, userID)
}

// ListAllTasks returns every task with its owner, newest first.
func (s *Store) ListAllTasks(ctx context.Context) ([]models.AdminTask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.id, t.title, t.description, t.category, t.priority, t.due_date, t.completed, t.created_at, u.name, u.email
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

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(user_id, title, description, category, priority, due_date) VALUES(?, ?, ?, ?, ?, ?)`,
		userID, in.Title, in.Description, in.Category, in.Priority, storage.DueDateValue(in.DueDate))
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, userID, id)
}

// GetTask retrieves a task owned by userID.
func (s *Store) GetTask(ctx context.Context, userID, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update to a task owned by userID.
func (s *Store) UpdateTask(ctx context.Context, userID, id int64, patch models.TaskPatch) (models.Task, error) {
	current, err := s.GetTask(ctx, userID, id)
	if err != nil {
		return models.Task{}, err
	}
	next := storage.ApplyPatch(current, patch)

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, category = ?, priority = ?, due_date = ?, completed = ? WHERE id = ? AND user_id = ?`,
		next.Title, next.Description, next.Category, next.Priority, storage.DueDateValue(next.DueDate), next.Completed, id, userID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, userID, id)
}

// DeleteTask removes a task owned by userID.
func (s *Store) DeleteTask(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListCategories returns the categories of a user by name.
func (s *Store) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, color FROM categories WHERE user_id = ? ORDER BY name`, userID)
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

	res, err := s.db.ExecContext(ctx, `INSERT INTO categories(user_id, name, color) VALUES(?, ?, ?)`, userID, name, color)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Category{}, fmt.Errorf("insert category: %w", storage.ErrConflict)
		}
		return models.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Category{}, fmt.Errorf("category id: %w", err)
	}
	return models.Category{ID: id, Name: name, Color: color}, nil
}

// Counts returns the global totals for the admin dashboard.
func (s *Store) Counts(ctx context.Context) (models.AdminStats, error) {
	var st models.AdminStats
	err := s.db.QueryRowContext(ctx, `SELECT
            (SELECT COUNT(*) FROM users WHERE is_admin = 0),
            (SELECT COUNT(*) FROM tasks),
            (SELECT COUNT(*) FROM categories)`).Scan(&st.TotalUsers, &st.TotalTasks, &st.TotalCategories)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("count rows: %w", err)
	}
	return st, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
