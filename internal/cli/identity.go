package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/charsheets/internal/api/response"
)

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Identity management commands",
	}

	cmd.AddCommand(newIdentityAddCmd())
	cmd.AddCommand(newIdentityListCmd())

	return cmd
}

func newIdentityAddCmd() *cobra.Command {
	var name, password string
	var master bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadServerConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			identity, err := newAuthService(store, c).CreateIdentity(cmd.Context(), name, password, master)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(response.IdentityFromModel(identity))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required for the master)")
	cmd.Flags().BoolVar(&master, "master", false, "Create the master identity")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newIdentityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadServerConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(cmd.Context(), c)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			identities, err := newAuthService(store, c).ListIdentities(cmd.Context())
			if err != nil {
				return err
			}

			result := make([]response.Identity, 0, len(identities))
			for _, identity := range identities {
				result = append(result, response.IdentityFromModel(identity))
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
