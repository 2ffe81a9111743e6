package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/touchstone/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("fpctl %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		},
	}
}
