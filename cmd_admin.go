package main

import (
	"fmt"

	"canteen/internal/repositories"
	"canteen/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

type adminInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
}

// newCreateAdminCmd is the only way to obtain the admin role; HTTP
// registration always creates plain users.
func newCreateAdminCmd() *cobra.Command {
	var in adminInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user with the admin role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.New().Struct(in); err != nil {
				return fmt.Errorf("invalid admin details: %w", err)
			}

			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			gw, err := openStore(ctx, cfg, logger)
			if gw != nil {
				defer gw.Close()
			}
			if err != nil {
				return err
			}

			authService := services.NewAuthService(repositories.NewGORMUserRepository(gw))
			admin, err := authService.CreateAdmin(ctx, in.Name, in.Email, in.Password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created: id=%d email=%s\n", admin.ID, admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Login password (6-72 bytes)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
