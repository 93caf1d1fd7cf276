package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/admin"
	"taskflow/internal/ui"
)

func (a *app) adminCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator dashboard",
		Long: `Administrator commands use a cookie session opened with "taskflow admin login".
It is stored next to, but separately from, your user session.

Without a subcommand the full dashboard is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAdmin(cmd, func(client *admin.Client) error {
				d := client.Dashboard(cmd.Context())
				if output != formatTable && output != "" {
					return render(a.out, output, d, nil)
				}
				printAdminStats(a.out, d.Stats)
				fmt.Fprintln(a.out)
				if err := render(a.out, formatTable, d.Users, userTable(d.Users)); err != nil {
					return err
				}
				fmt.Fprintln(a.out)
				return render(a.out, formatTable, d.Tasks, adminTaskTable(d.Tasks))
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")

	cmd.AddCommand(a.adminLoginCommand())
	cmd.AddCommand(a.adminLogoutCommand())
	cmd.AddCommand(a.adminListCommand("users", "List every account", func(cmd *cobra.Command, c *admin.Client, output string) error {
		users := c.Users(cmd.Context())
		return render(a.out, output, users, userTable(users))
	}))
	cmd.AddCommand(a.adminListCommand("tasks", "List the tasks of every user", func(cmd *cobra.Command, c *admin.Client, output string) error {
		all := c.AllTasks(cmd.Context())
		return render(a.out, output, all, adminTaskTable(all))
	}))
	cmd.AddCommand(a.adminListCommand("stats", "Show global counters", func(cmd *cobra.Command, c *admin.Client, output string) error {
		stats := c.Stats(cmd.Context())
		if stats == nil {
			return errFailed
		}
		if output == formatTable || output == "" {
			printAdminStats(a.out, stats)
			return nil
		}
		return render(a.out, output, stats, nil)
	}))
	return cmd
}

// withAdmin runs fn with a signed-in admin client.
func (a *app) withAdmin(cmd *cobra.Command, fn func(*admin.Client) error) error {
	client, release, err := a.openAdmin(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	if !client.LoggedIn() {
		a.term.NavigateTo(ui.PathAdmin)
		return fmt.Errorf("no admin session")
	}
	return fn(client)
}

func (a *app) adminListCommand(use, short string, run func(*cobra.Command, *admin.Client, string) error) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withAdmin(cmd, func(client *admin.Client) error {
				return run(cmd, client, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) adminLoginCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open an admin session with the admin password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := a.readSecret(password, "Admin password: ")
			if err != nil {
				return err
			}
			client, release, err := a.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !client.Login(cmd.Context(), secret) {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Admin password (read from stdin when omitted)")
	return cmd
}

func (a *app) adminLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, release, err := a.openAdmin(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return client.Logout(cmd.Context())
		},
	}
}
