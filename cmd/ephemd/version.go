package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapaev95/ephemeris-agpl-service/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and source information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			b := cfg.Build
			fmt.Printf("%s %s (api %s)\n", buildinfo.Service, b.Tag, buildinfo.APIVersion)
			fmt.Printf("commit:  %s\n", b.Commit)
			fmt.Printf("built:   %s\n", b.BuildTime)
			fmt.Printf("license: %s\n", buildinfo.License)
			fmt.Printf("source:  %s\n", b.SourceHeader())
			return nil
		},
	}
}
