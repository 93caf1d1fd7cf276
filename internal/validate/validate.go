// Package validate checks form input before it is sent anywhere.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return instance
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// TaskForm is the new-task form.
type TaskForm struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority" validate:"omitempty,oneof=high medium low"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// Login validates a sign-in form.
func Login(f LoginForm) error {
	f.Identifier = strings.TrimSpace(f.Identifier)
	return check(f)
}

// Register validates a sign-up form.
func Register(f RegisterForm) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

// Task validates a new-task form and converts it to an API payload. The
// priority defaults to medium.
func Task(f TaskForm) (models.TaskInput, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.DueDate = strings.TrimSpace(f.DueDate)
	if err := check(f); err != nil {
		return models.TaskInput{}, err
	}

	input := models.TaskInput{
		Title:       f.Title,
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Priority:    models.Priority(f.Priority),
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if f.DueDate != "" {
		d, err := models.ParseDate(f.DueDate)
		if err != nil {
			return models.TaskInput{}, &apperr.ValidationError{Field: "due_date", Message: "Due date must look like YYYY-MM-DD"}
		}
		input.DueDate = &d
	}
	return input, nil
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return engine().Var(s, "required,email") == nil
}

func check(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}
	fe := verrs[0]
	return &apperr.ValidationError{Field: fe.Field(), Message: message(fe)}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", capitalize(fe.Field()))
	case "email":
		return "Invalid email"
	case "min":
		if fe.Field() == "password" {
			return fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
		}
		return fmt.Sprintf("%s must be at least %s characters", capitalize(fe.Field()), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", capitalize(fe.Field()), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must look like YYYY-MM-DD", capitalize(strings.ReplaceAll(fe.Field(), "_", " ")))
	default:
		return fmt.Sprintf("%s is invalid", capitalize(fe.Field()))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
