package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check database connectivity and print table statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			gw, err := openStore(ctx, cfg, logger)
			if gw != nil {
				defer gw.Close()
			}
			if err != nil {
				fmt.Fprintln(out, "database: disconnected")
				return fmt.Errorf("database unhealthy: %w", err)
			}
			if err := gw.Check(ctx); err != nil {
				fmt.Fprintln(out, "database: disconnected")
				return fmt.Errorf("database unhealthy: %w", err)
			}

			stats, err := gw.Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to read statistics: %w", err)
			}
			fmt.Fprintf(out, "database: connected (policy %s)\n", gw.Policy())
			fmt.Fprintf(out, "users: %d\n", stats.Users)
			fmt.Fprintf(out, "orders: %d\n", stats.Orders)
			for _, u := range stats.SampleUsers {
				fmt.Fprintf(out, "  #%d %s <%s> %s\n", u.ID, u.Name, u.Email, u.Role)
			}
			return nil
		},
	}
}
