package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskflow/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect TaskFlow configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shown := *a.cfg
			for _, secret := range []*string{&shown.Server.SecretKey, &shown.Server.AdminPassword, &shown.Client.RedisPassword} {
				if *secret != "" {
					*secret = "********"
				}
			}

			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(a.out, "# Merged configuration (defaults + global + project + environment)")
			fmt.Fprint(a.out, string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "Global:  %s\n", config.GlobalConfigPath())
			fmt.Fprintf(a.out, "Project: %s\n", config.ProjectConfigPath())
		},
	})
	return cmd
}
