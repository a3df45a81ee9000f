package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/internal/config"
	skerrors "github.com/systmms/secretkeeper/internal/errors"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var requester string

	cmd := &cobra.Command{
		Use:   "delete <secret-id>",
		Short: "Delete a secret",
		Long: `Delete a secret by id. Deletion is idempotent: deleting an absent or
already-deleted id succeeds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if requester == "" {
				return skerrors.UserError{
					Message:    "Requester identity is required",
					Suggestion: "Use --as <user-id> to supply the authenticated identity",
				}
			}

			service, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if err := service.Delete(cmd.Context(), requester, args[0]); err != nil {
				return err
			}

			fmt.Println("deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&requester, "as", "", "Authenticated requester identity")

	return cmd
}
