package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-radar/internal/model"
	"github.com/sells-group/lead-radar/internal/scoring"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect stored leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, best opportunities first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		city, _ := cmd.Flags().GetString("city")
		category, _ := cmd.Flags().GetString("category")
		jobID, _ := cmd.Flags().GetString("job")
		minScore, _ := cmd.Flags().GetInt("min-score")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		leads, err := st.ListLeads(ctx, model.LeadFilter{
			City:     city,
			Category: category,
			JobID:    jobID,
			MinScore: minScore,
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// formatLeadsList writes a tabular list of leads to w.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tPRIORITY\tBUSINESS\tCATEGORY\tPHONE\tWEBSITE\tINSTAGRAM")
	_, _ = fmt.Fprintln(w, "-----\t--------\t--------\t--------\t-----\t-------\t---------")

	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.OpportunityScore,
			scoring.Label(l.OpportunityScore),
			truncate(l.BusinessName, 30),
			truncate(l.Category, 20),
			orDash(l.Phone),
			orDash(truncate(l.WebsiteURL, 40)),
			orDash(l.InstagramURL),
		)
	}
	_ = w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	f := leadsListCmd.Flags()
	f.String("city", "", "only leads in this city")
	f.String("category", "", "only leads in this category")
	f.String("job", "", "only leads saved by this job id")
	f.Int("min-score", 0, "minimum opportunity score")
	f.Int("limit", 50, "maximum leads to show")
	f.Int("offset", 0, "leads to skip")

	leadsCmd.AddCommand(leadsListCmd)
	rootCmd.AddCommand(leadsCmd)
}
