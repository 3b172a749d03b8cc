package main

import (
	"fmt"
	"strings"

	"propfinder/internal/model"

	"github.com/spf13/cobra"
)

func newGeocodeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <query>",
		Short: "Resolve a free-text location to coordinates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			loc, found, err := a.Geocoder.Lookup(cmd.Context(), query)
			if err != nil {
				return err
			}

			if root.jsonOut {
				resp := model.GeocodeResponse{Query: query, Found: found}
				if found {
					resp.Location = &loc
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			if !found {
				return fmt.Errorf("location not found: %s", query)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %g, %g\n", query, loc.Lat, loc.Lng)
			return nil
		},
	}
}
