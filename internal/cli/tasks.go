package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
	"taskflow/internal/tasks"
	"taskflow/internal/validate"
)

func (a *app) tasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and change your tasks",
	}
	cmd.AddCommand(a.tasksListCommand())
	cmd.AddCommand(a.tasksAddCommand())
	cmd.AddCommand(a.tasksUpdateCommand())
	cmd.AddCommand(a.tasksToggleCommand())
	cmd.AddCommand(a.tasksRemoveCommand())
	return cmd
}

func parseTaskID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

// reloadStats refreshes the collection after a mutation and prints the new
// counters.
func (a *app) reloadStats(cmd *cobra.Command, coll *tasks.Collection) {
	printStats(a.out, coll.Load(cmd.Context()))
}

func (a *app) tasksListCommand() *cobra.Command {
	var (
		status, priority, category, output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := models.Filter{
				Status:   models.StatusFilter(status),
				Priority: models.Priority(priority),
				Category: category,
			}
			switch filter.Status {
			case "", models.StatusAll, models.StatusCompleted, models.StatusPending:
			default:
				return fmt.Errorf("unknown status %q (want all, completed or pending)", status)
			}
			if filter.Priority != "" && !filter.Priority.Valid() {
				return fmt.Errorf("unknown priority %q (want high, medium or low)", priority)
			}

			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			stats := coll.Load(cmd.Context())
			view := coll.Filter(filter)
			if output == formatTable || output == "" {
				printStats(a.out, stats)
			}
			return render(a.out, output, view, taskTable(view))
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: all, completed or pending")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority: high, medium or low")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category")
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) tasksAddCommand() *cobra.Command {
	var form validate.TaskForm

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Title = strings.Join(args, " ")
			input, err := validate.Task(form)
			if err != nil {
				return a.reject(err, "Invalid task")
			}

			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !coll.CreateTask(cmd.Context(), input) {
				return errFailed
			}
			a.reloadStats(cmd, coll)
			return nil
		},
	}

	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "Longer description")
	cmd.Flags().StringVarP(&form.Category, "category", "c", "", "Category label")
	cmd.Flags().StringVarP(&form.Priority, "priority", "p", "", "Priority: high, medium or low (default medium)")
	cmd.Flags().StringVar(&form.DueDate, "due", "", "Due date as YYYY-MM-DD")
	return cmd
}

func (a *app) tasksUpdateCommand() *cobra.Command {
	var title, description, category, priority, due string
	var completed bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			var patch models.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				if strings.TrimSpace(title) == "" {
					return a.reject(&apperr.ValidationError{Field: "title", Message: "Title is required"}, "")
				}
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("category") {
				patch.Category = &category
			}
			if flags.Changed("priority") {
				p := models.Priority(priority)
				if !p.Valid() {
					return a.reject(&apperr.ValidationError{Field: "priority", Message: "Priority must be one of: high medium low"}, "")
				}
				patch.Priority = &p
			}
			if flags.Changed("due") {
				d := models.Date{}
				if due != "" {
					if d, err = models.ParseDate(due); err != nil {
						return a.reject(&apperr.ValidationError{Field: "due_date", Message: "Due date must look like YYYY-MM-DD"}, "")
					}
				}
				patch.DueDate = &d
			}
			if flags.Changed("completed") {
				patch.Completed = &completed
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update; pass at least one field flag")
			}

			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !coll.UpdateTask(cmd.Context(), id, patch) {
				return errFailed
			}
			a.reloadStats(cmd, coll)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().StringVar(&due, "due", "", "New due date as YYYY-MM-DD; empty clears it")
	cmd.Flags().BoolVar(&completed, "completed", false, "Mark as completed (--completed=false reopens)")
	return cmd
}

func (a *app) tasksToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip the completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			coll.Load(cmd.Context())
			if !coll.ToggleTask(cmd.Context(), id) {
				return errFailed
			}
			printStats(a.out, coll.Stats())
			return nil
		},
	}
}

func (a *app) tasksRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !coll.DeleteTask(cmd.Context(), id) {
				return errFailed
			}
			a.reloadStats(cmd, coll)
			return nil
		},
	}
}

func (a *app) statsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			stats := coll.Load(cmd.Context())
			if output == formatTable || output == "" {
				printStats(a.out, stats)
				return nil
			}
			return render(a.out, output, stats, nil)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) calendarCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show tasks with a due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			events := coll.Calendar(cmd.Context())
			return render(a.out, output, events, eventTable(events))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}
