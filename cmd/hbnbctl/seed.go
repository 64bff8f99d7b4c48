package main

import (
	"fmt"
	"os"

	"hbnb/internal/seed"

	"github.com/spf13/cobra"
)

func (c *cli) seedCmd() *cobra.Command {
	var (
		fixturesPath string
		demo         bool
		opts         seed.Options
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data and optionally generate demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fx := seed.DefaultFixtures()
			if fixturesPath != "" {
				file, err := os.Open(fixturesPath)
				if err != nil {
					return fmt.Errorf("open fixtures: %w", err)
				}
				defer file.Close()
				if fx, err = seed.LoadFixtures(file); err != nil {
					return err
				}
			}

			f, closeDB, err := c.openFacade(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			summary, err := seed.Apply(cmd.Context(), f, fx)
			if err != nil {
				return fmt.Errorf("apply fixtures: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fixtures: %d users, %d amenities created\n", summary.Users, summary.Amenities)

			if !demo {
				return nil
			}
			generated, err := seed.NewFactory(f, opts).Demo(cmd.Context())
			if err != nil {
				return fmt.Errorf("generate demo data: %w", err)
			}
			fmt.Fprintf(out, "demo: %d users, %d places, %d reviews (password %q)\n",
				generated.Users, generated.Places, generated.Reviews, seed.DemoPassword)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fixturesPath, "fixtures", "", "YAML fixtures file (defaults to the embedded set)")
	flags.BoolVar(&demo, "demo", false, "also generate demo users, places and reviews")
	flags.IntVar(&opts.Users, "users", 5, "demo users to create")
	flags.IntVar(&opts.PlacesPerUser, "places", 2, "places per demo user")
	flags.IntVar(&opts.ReviewsPerPlace, "reviews", 3, "reviews per place")
	flags.Int64Var(&opts.Seed, "seed", 0, "random seed for reproducible demo data")
	return cmd
}
