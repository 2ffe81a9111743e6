package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and manage stored templates",
	}
	cmd.AddCommand(templatesCountCmd())
	cmd.AddCommand(templatesListCmd())
	cmd.AddCommand(templatesDeleteCmd())
	cmd.AddCommand(templatesWipeCmd())
	return cmd
}

func templatesCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored templates",
		RunE: func(_ *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			count, err := sensor.TemplateCount()
			if err != nil {
				return err
			}
			capacity, err := sensor.StorageCapacity()
			if err != nil {
				return err
			}
			fmt.Printf("%d / %d slots used\n", count, capacity)
			return nil
		},
	}
}

func templatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List occupied template positions",
		RunE: func(_ *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			capacity, err := sensor.StorageCapacity()
			if err != nil {
				return err
			}

			position := 0
			for page := 0; page < 4 && position < capacity; page++ {
				index, err := sensor.TemplateIndex(page)
				if err != nil {
					return err
				}
				for _, used := range index {
					if position >= capacity {
						break
					}
					if used {
						fmt.Println(position)
					}
					position++
				}
			}
			return nil
		},
	}
}

func templatesDeleteCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "delete <position>",
		Short: "Delete templates starting at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			ok, err := sensor.DeleteTemplate(position, count)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("sensor refused to delete position %d", position)
			}
			fmt.Printf("deleted %d template(s) starting at %d\n", count, position)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of consecutive templates to delete")
	return cmd
}

func templatesWipeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every stored template",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe without --yes")
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			ok, err := sensor.ClearDatabase()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("sensor refused to clear its database")
			}
			fmt.Println("database cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
