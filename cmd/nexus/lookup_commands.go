package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crm-nexus/nexus/lookups"
)

var lookupSearch string

var lookupsCmd = &cobra.Command{
	Use:       "lookups <table>",
	Short:     "Show a reference table",
	Long:      "Tables: license-types, regions, term-licenses, product-sold.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"license-types", "regions", "term-licenses", "product-sold"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		cache, err := lookups.NewCache(a.client)
		if err != nil {
			return err
		}
		items, err := cache.Get(cmd.Context(), lookups.Table(args[0]), lookupSearch)
		if err != nil {
			return err
		}

		for _, item := range items {
			fmt.Printf("%-30s %s\n", item.Label, item.Value)
		}
		return nil
	},
}

func init() {
	lookupsCmd.Flags().StringVar(&lookupSearch, "search", "", "filter by search term")
}
