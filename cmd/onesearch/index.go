package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rtCamp/onesearch/config"
	srv "github.com/rtCamp/onesearch/internal/server"
)

func indexCMD() *cobra.Command {
	var cfgPath string
	var all bool
	var idx = &cobra.Command{
		Use:   "index",
		Short: "Rebuild this site's partition of the shared index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return srv.Reindex(context.Background(), cfg, all)
		},
	}
	idx.Flags().BoolVar(&all, "all", false, "also trigger a rebuild on every registered brand (governing only)")
	idx.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return idx
}
