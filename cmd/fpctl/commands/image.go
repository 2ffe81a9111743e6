package commands

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func imageCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "image <out.png>",
		Short: "Capture a fingerprint image and save it as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sensor, port, err := openSensor()
			if err != nil {
				return err
			}
			defer port.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			fmt.Println("place finger on the sensor...")
			for {
				ok, err := sensor.ReadImage()
				if err != nil {
					return err
				}
				if ok {
					break
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
			}

			img, err := sensor.DownloadImage()
			if err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if err := png.Encode(f, img); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%dx%d)\n", args[0], img.Rect.Dx(), img.Rect.Dy())
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for a finger")
	return cmd
}
