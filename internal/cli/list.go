package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/ppiankov/truthledger/internal/store"
	"github.com/spf13/cobra"
)

var (
	listLimit int
	listJSON  bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored claims, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListClaims(cmd.Context(), listLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tTRUTH\tBIAS\tCLAIM\tSOURCE")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Timestamp, r.TruthScore, r.BiasRating, r.Claim, r.Source)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of claims (0 for all)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print claims as JSON")
}
