package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Reprogram sensor settings",
	}
	cmd.AddCommand(setBaudCmd())
	cmd.AddCommand(setSecurityCmd())
	cmd.AddCommand(setPacketSizeCmd())
	cmd.AddCommand(setAddressCmd())
	cmd.AddCommand(setPasswordCmd())
	return cmd
}

func setBaudCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "baud <bps>",
		Short: "Change the sensor's line speed (multiples of 9600 up to 115200)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			bps, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid baud rate %q", args[0])
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			hint, err := sensor.SetBaudRate(bps)
			if err != nil {
				return err
			}
			// The sensor switches immediately; re-clock our side before
			// anything else goes over the wire.
			if err := port.Reconfigure(hint); err != nil {
				return fmt.Errorf("sensor now at %d bps but local port did not follow: %w", hint, err)
			}

			fmt.Printf("baud rate set to %d; update device.baud_rate in the config\n", hint)
			return nil
		},
	}
}

func setSecurityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "security <1-5>",
		Short: "Change the matching strictness",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid security level %q", args[0])
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			if err := sensor.SetSecurityLevel(level); err != nil {
				return err
			}
			fmt.Printf("security level set to %d\n", level)
			return nil
		},
	}
}

func setPacketSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "packet-size <32|64|128|256>",
		Short: "Change the negotiated packet payload size",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid packet size %q", args[0])
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			if err := sensor.SetMaxPacketSize(size); err != nil {
				return err
			}
			fmt.Printf("packet size set to %d bytes\n", size)
			return nil
		},
	}
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("expected a 32-bit hex value, got %q", s)
	}
	return uint32(v), nil
}

func setAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address <hex>",
		Short: "Reprogram the device address",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			address, err := parseHex32(args[0])
			if err != nil {
				return err
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			if err := sensor.SetAddress(address); err != nil {
				return err
			}
			fmt.Printf("device address set to 0x%08X; update device.address in the config\n", address)
			return nil
		},
	}
}

func setPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password <hex>",
		Short: "Reprogram the device password",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			devicePassword, err := parseHex32(args[0])
			if err != nil {
				return err
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			if err := sensor.SetPassword(devicePassword); err != nil {
				return err
			}
			fmt.Println("device password updated; update device.password in the config")
			return nil
		},
	}
}
