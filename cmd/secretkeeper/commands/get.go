package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/internal/config"
	skerrors "github.com/systmms/secretkeeper/internal/errors"
	"github.com/systmms/secretkeeper/pkg/keeper"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		requester string
		burn      bool
	)

	cmd := &cobra.Command{
		Use:   "get <secret-id>",
		Short: "Retrieve a secret's plaintext",
		Long: `Retrieve and decrypt a secret you own.

Absent, expired and foreign secrets are indistinguishable: all answer
"not found". With --burn the secret is deleted immediately after this
read succeeds.

Examples:
  secretkeeper get --as alice 3f8a...
  secretkeeper get --as alice --burn 3f8a...`,
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

			plaintext, err := service.Get(cmd.Context(), requester, args[0], burn)
			if err != nil {
				if errors.Is(err, keeper.ErrNotFound) {
					return skerrors.UserError{
						Message: "Secret not found",
						Err:     err,
					}
				}
				return err
			}

			// Raw value on stdout for scripting; no trailing newline added
			// beyond the one here.
			fmt.Fprintln(os.Stdout, string(plaintext))
			return nil
		},
	}

	cmd.Flags().StringVar(&requester, "as", "", "Authenticated requester identity")
	cmd.Flags().BoolVar(&burn, "burn", false, "Delete the secret after this read")

	return cmd
}
