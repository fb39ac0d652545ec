package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/mealdash-backend/internal/seed"
)

func newSeedCommand(env *environment) *cobra.Command {
	var (
		file     string
		validate bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load settings, kitchens, riders, operators, users and meals from YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			if validate {
				return env.emit(cmd.OutOrStdout(), map[string]bool{"valid": true}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s is valid\n", file)
					return err
				})
			}

			ctx := cmd.Context()
			_, logg, client, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			seeder, err := seed.NewSeeder(client, logg)
			if err != nil {
				return err
			}
			summary, err := seeder.Apply(ctx, fixture)
			if err != nil {
				return err
			}
			return env.emit(cmd.OutOrStdout(), summary, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "seeded settings=%d vendors=%d meals=%d options=%d partners=%d admins=%d users=%d addresses=%d\n",
					summary.Settings, summary.Vendors, summary.Meals, summary.Options,
					summary.Partners, summary.Admins, summary.Users, summary.Addresses)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "fixture file")
	cmd.Flags().BoolVar(&validate, "validate", false, "validate the fixture without touching the database")
	return cmd
}
