package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/touchstone/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		out   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render scan activity from the record store as an HTML report",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := db.Scans(limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return fmt.Errorf("no scan events recorded yet")
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := report.Render(f, events); err != nil {
				return err
			}

			s := report.Summarize(events)
			fmt.Printf("wrote %s: %d scans, %d matches (%.0f%%)\n", out, s.Count, s.Matches, s.MatchRate*100)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "touchstone-report.html", "output HTML file")
	cmd.Flags().IntVar(&limit, "limit", 500, "number of recent scans to include")
	return cmd
}
