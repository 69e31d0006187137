package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/charsheets/internal/api/response"
)

func newCharactersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters",
		Aliases: []string{"chars"},
		Short:   "Character sheet commands",
	}

	cmd.AddCommand(newCharactersListCmd())
	cmd.AddCommand(newCharactersGetCmd())
	cmd.AddCommand(newCharactersDeleteCmd())

	return cmd
}

func newCharactersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the character sheets visible to the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.CharacterList

			if err := client.Get(cmd.Context(), "/characters", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCharactersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a character sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCharacterID(args[0])
			if err != nil {
				return err
			}

			var result response.Character
			if err := client.Get(cmd.Context(), characterPath(id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newCharactersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a character sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCharacterID(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(cmd.Context(), characterPath(id)); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage(fmt.Sprintf("Character %d deleted", id))
			return nil
		},
	}
}

func parseCharacterID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid character id %q", raw)
	}
	return id, nil
}

func characterPath(id int64) string {
	return "/characters/" + strconv.FormatInt(id, 10)
}
