/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/metrics/influxdb"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/state"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/spf13/cobra"
)

var optRouteGeoJSON bool
var optRouteHighlight string
var optRouteInflux bool

// routeCmd represents the route command
var routeCmd = &cobra.Command{
	Use:   "route <run-id | vehicle/shift/date>",
	Short: "Print the reconstructed route of a run or an aggregate",
	Long: `
Prints the route view of one run, or of all runs of a vehicle
by drivers of one shift on one day (eg. truck-7/morning/2024-11-18).

Examples:

  fleetd route r1
  fleetd route --geojson truck-7/morning/2024-11-18 > route.geojson
  fleetd route --highlight segment-1 r1
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		store, err := state.Open(datadir(), true)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := api.RouteOptions{
			Now:       time.Now(),
			Highlight: optRouteHighlight,
			Location:  params.DefaultLocation,
		}
		var view *api.RouteView
		if strings.Count(args[0], "/") == 2 {
			key, err := runtrack.ParseRunKey(args[0])
			if err != nil {
				return err
			}
			agg, err := api.LoadAggregate(store, key, params.DefaultLocation, nil)
			if err != nil {
				return err
			}
			view = api.RouteForAggregate(agg, opts)
		} else {
			run, err := store.GetRun(conceptual.RunID(args[0]))
			if err != nil {
				return err
			}
			view = api.RouteForRun(run, opts)
		}

		if optRouteInflux {
			if err := influxdb.ExportSegments(influxdb.DefaultConfig(), view); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if optRouteGeoJSON {
			return enc.Encode(view.FeatureCollection())
		}
		return enc.Encode(view)
	},
}

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().BoolVar(&optRouteGeoJSON, "geojson", false, "Print a GeoJSON FeatureCollection instead of the route view")
	routeCmd.Flags().StringVar(&optRouteHighlight, "highlight", "", "Segment id to highlight, eg. segment-0")
	routeCmd.Flags().BoolVar(&optRouteInflux, "influx", false, "Also write the segments to InfluxDB (INFLUXDB_* env)")
}
