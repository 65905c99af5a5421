package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/recipebox/recipebox-server/internal/service"
)

func newCreateUserCmd(opts *rootOptions) *cobra.Command {
	var req service.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(func(injector *do.RootScope) error {
				authService, err := do.Invoke[*service.AuthService](injector)
				if err != nil {
					return err
				}

				user, err := authService.Register(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
