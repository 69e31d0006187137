package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/charsheets/internal/api/response"
)

// StatusReport is printed by the status command
type StatusReport struct {
	Server   string             `json:"server"`
	Status   string             `json:"status"`
	Identity *response.Identity `json:"identity,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"health"},
		Short:   "Check the server and show who is logged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var health response.HealthResponse
			if err := client.Get(cmd.Context(), "/health", &health); err != nil {
				return err
			}

			report := StatusReport{Server: cfg.ServerURL, Status: health.Status}
			if cfg.Token != "" {
				var identity response.Identity
				err := client.Get(cmd.Context(), "/me", &identity)
				switch {
				case err == nil:
					report.Identity = &identity
				case !IsRemote(err):
					return err
				}
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(report)
			return nil
		},
	}
}
