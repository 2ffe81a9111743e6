package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the serial link and device password",
		RunE: func(_ *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			fmt.Printf("sensor at %s answered on address 0x%08X\n", cfg.Device.Path, sensor.Address())
			return nil
		},
	}
}

func paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Print the sensor's system parameters",
		RunE: func(_ *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			params, err := sensor.SystemParameters()
			if err != nil {
				return err
			}
			count, err := sensor.TemplateCount()
			if err != nil {
				return err
			}

			packetSize, err := params.PacketSize()
			if err != nil {
				return err
			}
			fmt.Printf("status register:  0x%04X\n", params.StatusRegister)
			fmt.Printf("system id:        0x%04X\n", params.SystemID)
			fmt.Printf("storage capacity: %d\n", params.StorageCapacity)
			fmt.Printf("templates stored: %d\n", count)
			fmt.Printf("security level:   %d\n", params.SecurityLevel)
			fmt.Printf("device address:   0x%08X\n", params.DeviceAddress)
			fmt.Printf("packet size:      %d bytes\n", packetSize)
			fmt.Printf("baud rate:        %d bps\n", params.BaudRate())
			return nil
		},
	}
}

func randomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Read a 32-bit value from the sensor's hardware RNG",
		RunE: func(_ *cobra.Command, _ []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			n, err := sensor.GenerateRandomNumber()
			if err != nil {
				return err
			}
			fmt.Printf("0x%08X\n", n)
			return nil
		},
	}
}
