package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tokobesi/terminal/internal/domain"
)

// loginCmd prints the backend login response, token included.
func loginCmd(opts *options) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("POS_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("password required (--password or $POS_PASSWORD)")
			}
			resp, err := opts.client.Login(cmd.Context(), domain.LoginRequest{Username: username, Password: password})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "backend username")
	cmd.Flags().StringVar(&password, "password", "", "backend password")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			if err := opts.client.Logout(opts.ctx(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
