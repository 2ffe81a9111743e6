package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/touchstone/internal/config"
	"github.com/banshee-data/touchstone/internal/monitoring"
	"github.com/banshee-data/touchstone/internal/store"
	"github.com/banshee-data/touchstone/serialport"
	"github.com/banshee-data/touchstone/zfm"
)

var (
	cfg *config.Config

	// Persistent flag values; non-zero values override the config file.
	configPath string
	devicePath string
	baudRate   int
	addressHex string
	password   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fpctl",
	Short: "Control ZFM/R30x fingerprint sensor modules",
	Long: "fpctl talks to ZhianTec ZFM-20/60/70/100 and compatible fingerprint\n" +
		"modules over a serial port: enrollment, identification, template\n" +
		"management, database backup/restore, image capture and sensor admin.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if devicePath != "" {
			loaded.Device.Path = devicePath
		}
		if baudRate != 0 {
			loaded.Device.BaudRate = baudRate
		}
		if addressHex != "" {
			loaded.Device.Address = addressHex
		}
		if password != "" {
			loaded.Device.Password = password
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		monitoring.Verbose = verbose
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "touchstone.yaml",
		"config file (YAML); missing file falls back to defaults")
	rootCmd.PersistentFlags().StringVar(&devicePath, "device", "",
		"serial device path (overrides config)")
	rootCmd.PersistentFlags().IntVar(&baudRate, "baud", 0,
		"serial baud rate (overrides config)")
	rootCmd.PersistentFlags().StringVar(&addressHex, "address", "",
		"device address as 32-bit hex (overrides config)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "",
		"device password as 32-bit hex (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"enable debug logging (wire traffic is not logged)")

	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(paramsCmd())
	rootCmd.AddCommand(enrollCmd())
	rootCmd.AddCommand(identifyCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(imageCmd())
	rootCmd.AddCommand(ledCmd())
	rootCmd.AddCommand(randomCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openSensor opens the configured serial port and completes the password
// handshake. The caller owns the returned port and must Close it.
func openSensor() (*zfm.Sensor, *serialport.Port, error) {
	address, err := cfg.Device.AddressValue()
	if err != nil {
		return nil, nil, err
	}
	devicePassword, err := cfg.Device.PasswordValue()
	if err != nil {
		return nil, nil, err
	}

	port, err := serialport.Open(cfg.Device.Path, serialport.PortOptions{
		BaudRate: cfg.Device.BaudRate,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := port.SetReadTimeout(cfg.Device.ReadTimeout); err != nil {
		port.Close()
		return nil, nil, err
	}

	sensor := zfm.New(port, address, devicePassword)
	ok, err := sensor.VerifyPassword()
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("password handshake: %w", err)
	}
	if !ok {
		port.Close()
		return nil, nil, fmt.Errorf("sensor rejected password %s", cfg.Device.Password)
	}
	return sensor, port, nil
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.Store.Path)
}
