// Package cli implements the taskflow command line: the backend server and
// a terminal client for it.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskflow/internal/config"
	"taskflow/internal/session"
	"taskflow/internal/ui"
)

var (
	errNotSignedIn = errors.New("not signed in")
	errFailed      = errors.New("command failed")
)

// app carries what every command needs once flags and config are parsed.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *slog.Logger
	term   *ui.Terminal

	apiURL    string
	backend   string
	verbose   bool
	assumeYes bool

	// Overridable in tests.
	loadConfig func() (*config.Config, error)
	kv         session.KeyValueStore
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, loadConfig: config.Load}
}

// NewRootCommand builds the taskflow command tree.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newApp(in, out, errOut).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - tasks, categories and a calendar for your to-dos",
		Long: `TaskFlow keeps track of your tasks.

Run "taskflow serve" to start the backend, then sign in with "taskflow login"
and manage tasks with "taskflow tasks".`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", "", "Backend URL (overrides client.api_url)")
	flags.StringVar(&a.backend, "session-backend", "", "Where the sign-in is kept: sqlite, redis or memory")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVarP(&a.assumeYes, "yes", "y", false, "Answer yes to every confirmation")

	root.AddCommand(a.serveCommand())
	root.AddCommand(a.loginCommand())
	root.AddCommand(a.registerCommand())
	root.AddCommand(a.logoutCommand())
	root.AddCommand(a.whoamiCommand())
	root.AddCommand(a.tasksCommand())
	root.AddCommand(a.statsCommand())
	root.AddCommand(a.calendarCommand())
	root.AddCommand(a.categoriesCommand())
	root.AddCommand(a.adminCommand())
	root.AddCommand(a.configCommand())
	return root
}

// setup loads the configuration and applies the global flags.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.Client.APIURL = a.apiURL
	}
	if a.backend != "" {
		cfg.Client.SessionBackend = a.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	level := parseLevel(cfg.Log.Level)
	logOut := a.errOut
	if cmd.Name() == "serve" {
		logOut = a.out
	} else if !a.verbose && level < slog.LevelWarn {
		// Client commands talk to the user through the terminal.
		level = slog.LevelWarn
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = newLogger(cfg.Log.Format, level, logOut)
	a.term = ui.NewTerminal(a.in, a.out, ui.WithAssumeYes(a.assumeYes), ui.WithLogger(a.logger))
	return nil
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func newLogger(format string, level slog.Level, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Execute runs the root command against the process streams.
func Execute(version string) error {
	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
