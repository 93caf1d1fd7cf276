package cli

import (
	"github.com/spf13/cobra"
)

func (a *app) categoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "List and create categories",
	}
	cmd.AddCommand(a.categoriesListCommand())
	cmd.AddCommand(a.categoriesAddCommand())
	return cmd
}

func (a *app) categoriesListCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			categories, err := coll.LoadCategories(cmd.Context())
			if err != nil {
				return errFailed
			}
			return render(a.out, output, categories, categoryTable(categories))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func (a *app) categoriesAddCommand() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, release, err := a.openCollection(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if !coll.CreateCategory(cmd.Context(), args[0], color) {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "Colour as #rrggbb (picked for you when empty)")
	return cmd
}
