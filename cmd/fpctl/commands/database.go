package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/touchstone/zfm"
)

func exportCmd() *cobra.Command {
	var jsonPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every stored template into the record store",
		RunE: func(_ *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			records, err := sensor.ExportDatabase()
			if err != nil {
				return err
			}

			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			batchID, err := db.SaveExport(records)
			if err != nil {
				return err
			}
			fmt.Printf("exported %d record(s) as batch %s\n", len(records), batchID)

			if jsonPath != "" {
				f, err := os.Create(jsonPath)
				if err != nil {
					return err
				}
				defer f.Close()
				enc := json.NewEncoder(f)
				enc.SetIndent("", "  ")
				if err := enc.Encode(records); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", jsonPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonPath, "json", "", "also write the records to a JSON file")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		jsonPath string
		batchID  string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Wipe the sensor and restore templates from a saved export",
		Long: "Restores templates from the record store (latest batch unless --batch\n" +
			"is given) or from a JSON file written by export --json. The sensor\n" +
			"database is cleared first; a failure partway leaves earlier slots\n" +
			"populated.",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("import clears the sensor database; confirm with --yes")
			}

			var records []zfm.Record
			if jsonPath != "" {
				data, err := os.ReadFile(jsonPath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &records); err != nil {
					return fmt.Errorf("parse %s: %w", jsonPath, err)
				}
			} else {
				db, err := openStore()
				if err != nil {
					return err
				}
				defer db.Close()
				records, err = db.Records(batchID)
				if err != nil {
					return err
				}
			}
			if len(records) == 0 {
				return fmt.Errorf("nothing to import")
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			chars := make([][]byte, len(records))
			for i, r := range records {
				chars[i] = r.Characteristics
			}
			if err := sensor.ImportDatabase(chars); err != nil {
				return err
			}
			fmt.Printf("imported %d record(s)\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonPath, "json", "", "import from a JSON file instead of the store")
	cmd.Flags().StringVar(&batchID, "batch", "", "store batch id (default: latest)")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the sensor database")
	return cmd
}
