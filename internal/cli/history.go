package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/transport/console"
)

// NewHistoryCmd prints previous attempts.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded quiz attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries := rt.history.All()
			if asJSON {
				if entries == nil {
					entries = []domain.HistoryEntry{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			console.NewTerminal(cmd.OutOrStdout()).HistoryLoaded(entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print history as JSON")
	return cmd
}
