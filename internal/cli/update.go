package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/config"
)

var updateJSON bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check the flag status once and store the result",
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateJSON, "json", false, "Output machine-readable JSON")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	upd, cleanup, err := newUpdater(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := upd.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	if updateJSON {
		payload := map[string]any{
			"status":          res.Status,
			"reason":          res.Reason,
			"proclamation_id": res.ProclamationID,
			"parse_strategy":  string(res.Strategy),
			"changed":         res.Changed,
			"archived":        res.Archived,
			"last_updated":    res.LastUpdated,
			"input_tokens":    res.Usage.InputTokens,
			"output_tokens":   res.Usage.OutputTokens,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status:  %s\n", res.Status)
	fmt.Fprintf(out, "Reason:  %s\n", res.Reason)
	if res.ProclamationID != "" {
		fmt.Fprintf(out, "Proclamation: %s\n", res.ProclamationID)
	}
	fmt.Fprintf(out, "Changed: %v\n", res.Changed)
	fmt.Fprintf(out, "Tokens:  %d in / %d out\n", res.Usage.InputTokens, res.Usage.OutputTokens)
	return nil
}
