package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/touchstone/internal/monitoring"
	"github.com/banshee-data/touchstone/zfm"
)

func enrollCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll a new finger and store its template",
		Long: "Waits for a finger, captures it twice (lift in between), checks the\n" +
			"two captures against each other and stores the merged template in the\n" +
			"smallest free slot.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			fmt.Println("place finger on the sensor...")
			position, err := sensor.Enroll(ctx)
			if err != nil {
				monitoring.EnrollmentsTotal.WithLabelValues("error").Inc()
				return err
			}
			monitoring.EnrollmentsTotal.WithLabelValues("ok").Inc()

			fmt.Printf("enrolled at position %d\n", position)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall enrollment deadline")
	return cmd
}

func identifyCmd() *cobra.Command {
	var (
		timeout     time.Duration
		minAccuracy int
	)

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Wait for a finger and match it against stored templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			fmt.Println("place finger on the sensor...")
			result, err := sensor.Scan(ctx, minAccuracy)
			if err != nil {
				monitoring.ScansTotal.WithLabelValues("error").Inc()
				return err
			}

			logScan(result)

			if !result.Found {
				monitoring.ScansTotal.WithLabelValues("no_match").Inc()
				fmt.Println("no match")
				return nil
			}
			monitoring.ScansTotal.WithLabelValues("match").Inc()
			fmt.Printf("match at position %d, accuracy %d\n", result.Position, result.Accuracy)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for a finger")
	cmd.Flags().IntVar(&minAccuracy, "min-accuracy", 0, "treat matches below this score as misses")
	return cmd
}

// logScan appends the attempt to the record store. Identification still
// succeeds when the store is unavailable.
func logScan(result zfm.SearchResult) {
	db, err := openStore()
	if err != nil {
		monitoring.Logf("fpctl: open store: %v", err)
		return
	}
	defer db.Close()
	if err := db.LogScan(result); err != nil {
		monitoring.Logf("fpctl: log scan: %v", err)
	}
}
