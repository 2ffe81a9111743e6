package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/touchstone/zfm"
)

var ledModes = map[string]zfm.LEDMode{
	"breathing":     zfm.LEDBreathing,
	"flashing":      zfm.LEDFlashing,
	"on":            zfm.LEDAlwaysOn,
	"off":           zfm.LEDAlwaysOff,
	"gradually-on":  zfm.LEDGraduallyOn,
	"gradually-off": zfm.LEDGraduallyOff,
}

var ledColors = map[string]zfm.LEDColor{
	"red":    zfm.LEDRed,
	"blue":   zfm.LEDBlue,
	"purple": zfm.LEDPurple,
	"green":  zfm.LEDGreen,
	"yellow": zfm.LEDYellow,
	"cyan":   zfm.LEDCyan,
	"white":  zfm.LEDWhite,
}

func ledCmd() *cobra.Command {
	var (
		color string
		speed uint8
		count uint8
	)

	cmd := &cobra.Command{
		Use:   "led <breathing|flashing|on|off|gradually-on|gradually-off>",
		Short: "Drive the aura LED on modules that have one",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			mode, ok := ledModes[args[0]]
			if !ok {
				return fmt.Errorf("unknown led mode %q", args[0])
			}
			ledColor, ok := ledColors[color]
			if !ok {
				return fmt.Errorf("unknown led color %q", color)
			}

			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			return sensor.SetLED(mode, ledColor, speed, count)
		},
	}

	cmd.Flags().StringVar(&color, "color", "blue", "led color")
	cmd.Flags().Uint8Var(&speed, "speed", 50, "animation speed (0 fastest, 255 slowest)")
	cmd.Flags().Uint8Var(&count, "count", 0, "animation cycles (0 = forever)")
	return cmd
}
