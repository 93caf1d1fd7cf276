package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"taskflow/internal/models"
)

// Output formats accepted by -o.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// render writes v as JSON or YAML, or hands a tab writer to table.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// Go through JSON so both formats share the json field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		data, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func taskTable(tasks []models.Task) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(tasks) == 0 {
			fmt.Fprintln(tw, "No tasks.")
			return
		}
		fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tDUE\tCATEGORY\tTITLE")
		for _, t := range tasks {
			done := " "
			if t.Completed {
				done = "x"
			}
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.String()
			}
			category := t.Category
			if category == "" {
				category = "-"
			}
			fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\t%s\t%s\n", t.ID, done, t.Priority, due, category, t.Title)
		}
	}
}

func categoryTable(categories []models.Category) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(categories) == 0 {
			fmt.Fprintln(tw, "No categories.")
			return
		}
		fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
		for _, c := range categories {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Color)
		}
	}
}

func eventTable(events []models.CalendarEvent) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(events) == 0 {
			fmt.Fprintln(tw, "Nothing scheduled.")
			return
		}
		fmt.Fprintln(tw, "DATE\tPRIORITY\tTITLE")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%v\t%s\n", e.Start, e.ExtendedProps["priority"], e.Title)
		}
	}
}

func userTable(users []models.User) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(users) == 0 {
			fmt.Fprintln(tw, "No users.")
			return
		}
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tADMIN\tREGISTERED")
		for _, u := range users {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Name, u.Email, u.IsAdmin, u.CreatedAt.Format(models.DateLayout))
		}
	}
}

func adminTaskTable(tasks []models.AdminTask) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if len(tasks) == 0 {
			fmt.Fprintln(tw, "No tasks.")
			return
		}
		fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tOWNER\tTITLE")
		for _, t := range tasks {
			done := " "
			if t.Completed {
				done = "x"
			}
			fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\t%s\n", t.ID, done, t.Priority, t.UserEmail, t.Title)
		}
	}
}

func printStats(w io.Writer, s models.Stats) {
	fmt.Fprintf(w, "Total: %d  Completed: %d  Pending: %d  Productivity: %d%%\n",
		s.Total, s.Completed, s.Pending, s.Productivity)
}

func printAdminStats(w io.Writer, s *models.AdminStats) {
	if s == nil {
		fmt.Fprintln(w, "Statistics unavailable.")
		return
	}
	fmt.Fprintf(w, "Users: %d  Tasks: %d  Categories: %d\n", s.TotalUsers, s.TotalTasks, s.TotalCategories)
}
