package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name      string
		form      RegisterForm
		wantField string
		wantMsg   string
	}{
		{"valid", RegisterForm{Name: "Ana", Email: "ana@example.com", Password: "secret1"}, "", ""},
		{"missing name", RegisterForm{Name: "  ", Email: "ana@example.com", Password: "secret1"}, "name", "Name is required"},
		{"bad email", RegisterForm{Name: "Ana", Email: "ana-at-example", Password: "secret1"}, "email", "Invalid email"},
		{"short password", RegisterForm{Name: "Ana", Email: "ana@example.com", Password: "12345"}, "password", "Password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Register(tt.form)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	assert.NoError(t, Login(LoginForm{Identifier: "ana@example.com", Password: "x"}))

	err := Login(LoginForm{Identifier: "ana@example.com"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestTask(t *testing.T) {
	input, err := Task(TaskForm{Title: "  write report ", Category: "work", DueDate: "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "write report", input.Title)
	assert.Equal(t, models.PriorityMedium, input.Priority)
	require.NotNil(t, input.DueDate)
	assert.Equal(t, "2024-05-01", input.DueDate.String())

	_, err = Task(TaskForm{Title: "   "})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Title is required", verr.Message)

	_, err = Task(TaskForm{Title: "x", Priority: "urgent"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "priority", verr.Field)

	_, err = Task(TaskForm{Title: "x", DueDate: "01/05/2024"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due_date", verr.Field)
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("ana@example.com"))
	assert.False(t, Email("ana@"))
	assert.False(t, Email(""))
}
