package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskflow/internal/apperr"
	"taskflow/internal/ui"
	"taskflow/internal/validate"
)

// readSecret returns flag when set, otherwise the first line of stdin.
func (a *app) readSecret(flag, prompt string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(a.out, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// reject shows a validation or API failure and turns it into a command error.
func (a *app) reject(err error, fallback string) error {
	a.term.Notify(apperr.Notice(err, fallback), ui.SeverityError)
	return errFailed
}

func (a *app) loginCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			secret, err := a.readSecret(password, "Password: ")
			if err != nil {
				return err
			}
			if err := validate.Login(validate.LoginForm{Identifier: args[0], Password: secret}); err != nil {
				return a.reject(err, "Invalid input")
			}

			store, release, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer release()

			result, err := store.Login(ctx, args[0], secret)
			if err != nil {
				return a.reject(err, "Sign in failed")
			}
			a.term.Notify(fmt.Sprintf("Welcome, %s", result.User.Name()), ui.SeveritySuccess)
			if result.Redirect != "" {
				a.term.NavigateTo(result.Redirect)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func (a *app) registerCommand() *cobra.Command {
	var name, password string

	cmd := &cobra.Command{
		Use:   "register EMAIL",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			secret, err := a.readSecret(password, "Password: ")
			if err != nil {
				return err
			}
			form := validate.RegisterForm{Name: name, Email: args[0], Password: secret}
			if err := validate.Register(form); err != nil {
				return a.reject(err, "Invalid input")
			}

			store, release, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer release()

			if err := store.Register(ctx, strings.TrimSpace(form.Name), strings.TrimSpace(form.Email), form.Password); err != nil {
				return a.reject(err, "Registration failed")
			}
			a.term.Notify("Account created, you can sign in now", ui.SeveritySuccess)
			a.term.NavigateTo(ui.PathLogin)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := store.Logout(cmd.Context()); err != nil {
				return err
			}
			a.term.Notify("Signed out", ui.SeverityInfo)
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, release, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !store.IsAuthenticated() {
				return errNotSignedIn
			}
			id := store.Identity()
			fmt.Fprintf(a.out, "%s <%s>\n", id.Name(), id.Email())
			return nil
		},
	}
}
