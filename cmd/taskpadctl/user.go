package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskpad/taskpad-go/internal/notify"
	"github.com/taskpad/taskpad-go/internal/repository"
	"github.com/taskpad/taskpad-go/internal/service"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd(a))
	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	var (
		username string
		email    string
		password string
		verified bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(cmd.Context()); err != nil {
				return err
			}

			mailer := notify.NewEmailNotifier(a.cfg.SMTP, a.cfg.AppBaseURL)
			users := service.NewUserService(repository.NewUserRepository(a.db), a.hasher, mailer)
			user, err := users.CreateUser(cmd.Context(), username, email, password, verified)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, verified=%t)\n", user.ID, user.Username, user.EmailVerified)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "username (3-30 letters, digits, _ or -)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&verified, "verified", false, "mark the email address as already verified")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
