package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/internal/config"
	skerrors "github.com/systmms/secretkeeper/internal/errors"
)

func NewCreateCommand(cfg *config.Config) *cobra.Command {
	var (
		requester string
		ttl       int64
	)

	cmd := &cobra.Command{
		Use:   "create [secret]",
		Short: "Create a new encrypted secret",
		Long: `Encrypt a secret under the designated key and store it.

The secret is read from the argument, or from stdin when no argument is
given. Only the generated secret id is printed, making it suitable for
scripting.

Examples:
  # Create with the default one hour lifetime
  secretkeeper create --as alice "the launch codes"

  # Create from stdin with a short lifetime
  echo -n "one-time token" | secretkeeper create --as alice --ttl 60`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if requester == "" {
				return skerrors.UserError{
					Message:    "Requester identity is required",
					Suggestion: "Use --as <user-id> to supply the authenticated identity",
				}
			}

			var plaintext []byte
			if len(args) == 1 {
				plaintext = []byte(args[0])
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return skerrors.UserError{
						Message: "Failed to read secret from stdin",
						Err:     err,
					}
				}
				plaintext = data
			}

			service, err := buildService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			id, err := service.Create(cmd.Context(), requester, plaintext, ttl)
			if err != nil {
				return err
			}

			fmt.Println(id)
			return nil
		},
	}

	cmd.Flags().StringVar(&requester, "as", "", "Authenticated requester identity")
	cmd.Flags().Int64Var(&ttl, "ttl", 0, "Lifetime in seconds (0 uses the configured default)")

	return cmd
}
