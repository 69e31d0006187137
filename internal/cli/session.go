package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/charsheets/internal/api/request"
	"github.com/mcoot/charsheets/internal/api/response"
)

func newLoginCmd() *cobra.Command {
	var identityID int64
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session as an identity",
		Long: `Open a session as an identity and save its token.

The master identity needs --password; players log in with their id alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if identityID <= 0 {
				return fmt.Errorf("--identity must be a positive id")
			}

			req := request.CreateSessionRequest{
				IdentityID: identityID,
				Password:   password,
			}
			var result response.SessionResponse

			if err := client.Post(cmd.Context(), "/sessions", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&identityID, "identity", 0, "Identity id (required)")
	cmd.Flags().StringVar(&password, "password", "", "Master password")
	_ = cmd.MarkFlagRequired("identity")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session and forget its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not logged in")
			}

			// An expired or revoked token is as good as logged out
			err := client.Delete(cmd.Context(), "/sessions/current")
			if err != nil && !IsStatus(err, http.StatusUnauthorized) {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Logged out")
			return nil
		},
	}
}

func newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the identity of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Identity

			if err := client.Get(cmd.Context(), "/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
