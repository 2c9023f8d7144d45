package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bsi-games/bsi/internal/authclient"
)

func newRegisterCmd() *cobra.Command {
	var eaddress string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the authorization server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.requireCredentials(); err != nil {
				return err
			}
			if eaddress == "" {
				return fmt.Errorf("--eaddress is required")
			}

			err := client.Auth.Register(cmd.Context(), cfg.Username, eaddress, cfg.Password)
			if errors.Is(err, authclient.ErrDuplicate) {
				return fmt.Errorf("username or eaddress already registered")
			}
			if err != nil {
				return err
			}

			output(cmd).PrintMessage("registered " + cfg.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&eaddress, "eaddress", "", "Contact address (required)")
	_ = cmd.MarkFlagRequired("eaddress")

	return cmd
}

func newIntrospectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "introspect",
		Short: "Sign in and show what the authorization server knows about the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.requireCredentials(); err != nil {
				return err
			}

			cred, err := client.Auth.SignIn(cmd.Context(), cfg.Username, cfg.Password)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
			defer func() { _ = client.Auth.Revoke(cmd.Context(), *cred) }()

			info, err := client.Auth.Introspect(cmd.Context(), *cred)
			if err != nil {
				return err
			}

			output(cmd).Print(info)
			return nil
		},
	}
}
