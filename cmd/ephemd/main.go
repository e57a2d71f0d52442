// Command ephemd serves and queries the ephemeris API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo"
)

var configPath string

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "ephemd",
		Short:         "Planetary positions, house cusps and Human Design time over HTTP",
		Version:       buildinfo.Tag,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $EPHEMD_CONFIG)")

	rootCmd.AddCommand(
		newServeCmd(),
		newPositionsCmd(),
		newHousesCmd(),
		newDesignTimeCmd(),
		newVersionCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
