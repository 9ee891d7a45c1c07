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
	"time"

	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/params"
	"github.com/rotblauer/fleetd/state"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/spf13/cobra"
)

var optKPIFrom string
var optKPITo string

// kpisCmd represents the kpis command
var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Print fleet totals for completed runs",
	Long: `
Totals the runs completed between --from and --to, inclusive, both YYYY-MM-DD.
Either defaults to today. Also counts completed runs for each of the last 7 days.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)
		loc := params.DefaultLocation
		now := time.Now().In(loc)

		from, to := now, now
		var err error
		if optKPIFrom != "" {
			if from, err = time.ParseInLocation(runtrack.RunKeyDateLayout, optKPIFrom, loc); err != nil {
				return err
			}
		}
		if optKPITo != "" {
			if to, err = time.ParseInLocation(runtrack.RunKeyDateLayout, optKPITo, loc); err != nil {
				return err
			}
		}

		store, err := state.Open(datadir(), true)
		if err != nil {
			return err
		}
		defer store.Close()
		runs, err := store.ListRuns(runtrack.RunFilter{Status: runtrack.RunCompleted})
		if err != nil {
			return err
		}

		k := api.ComputeKPIs(runs, from, to, loc)
		k.RunsPerDay = api.RunsPerDay(runs, now, params.DefaultRunsPerDayWindow, loc)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(k)
	},
}

func init() {
	rootCmd.AddCommand(kpisCmd)

	kpisCmd.Flags().StringVar(&optKPIFrom, "from", "", "First day, YYYY-MM-DD")
	kpisCmd.Flags().StringVar(&optKPITo, "to", "", "Last day, YYYY-MM-DD")
}
