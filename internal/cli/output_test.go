package cli

import (
	"bytes"
	"testing"
	"text/tabwriter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

func TestRenderYAMLUsesJSONNames(t *testing.T) {
	due, err := models.ParseDate("2025-01-02")
	require.NoError(t, err)

	var buf bytes.Buffer
	tasks := []models.Task{{ID: 7, Title: "a", Priority: models.PriorityLow, DueDate: &due}}
	require.NoError(t, render(&buf, formatYAML, tasks, nil))

	assert.Contains(t, buf.String(), "due_date:")
	assert.Contains(t, buf.String(), "2025-01-02")
	assert.Contains(t, buf.String(), "priority: low")
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	tasks := []models.Task{{ID: 1, Title: "Ship it", Priority: models.PriorityHigh, Completed: true}}
	require.NoError(t, render(&buf, formatTable, tasks, taskTable(tasks)))

	assert.Contains(t, buf.String(), "ID")
	assert.Contains(t, buf.String(), "[x]")
	assert.Contains(t, buf.String(), "Ship it")

	buf.Reset()
	require.NoError(t, render(&buf, "", []models.Task{}, taskTable(nil)))
	assert.Equal(t, "No tasks.\n", buf.String())
}

func TestRenderUnknownFormat(t *testing.T) {
	err := render(&bytes.Buffer{}, "xml", nil, func(*tabwriter.Writer) {})
	assert.Error(t, err)
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, models.Stats{Total: 3, Completed: 2, Pending: 1, Productivity: 67})
	assert.Equal(t, "Total: 3  Completed: 2  Pending: 1  Productivity: 67%\n", buf.String())
}
