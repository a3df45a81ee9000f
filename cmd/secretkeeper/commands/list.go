package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/secretkeeper/internal/config"
	skerrors "github.com/systmms/secretkeeper/internal/errors"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	var (
		requester  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your secrets' metadata",
		Long: `List metadata for every secret you own, including already-expired
ones. Payloads are never decrypted or shown by list.`,
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

			entries, err := service.List(cmd.Context(), requester)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SECRET ID\tCREATED\tEXPIRES\tSTATE")
			now := time.Now().Unix()
			for _, e := range entries {
				state := "active"
				if e.ExpiresAt <= now {
					state = "expired"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.SecretID,
					time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339),
					time.Unix(e.ExpiresAt, 0).UTC().Format(time.RFC3339),
					state,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&requester, "as", "", "Authenticated requester identity")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
