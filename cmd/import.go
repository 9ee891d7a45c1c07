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
	"context"
	"fmt"
	"log/slog"

	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/runz"
	"github.com/rotblauer/fleetd/state"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import runs and drivers from newline-delimited JSON",
	Long: `
Reads JSON lines from the file, or stdin when the file is - or missing.
Files ending in .gz are decompressed.

Lines with a vehicleId are runs, lines with a shift are drivers.
Runs are validated and their pings cleaned the same way POST /populate does it.
Invalid runs are logged and skipped. Re-importing a run replaces it.

Examples:

  fleetd import fleet.ndjson.gz
  zcat fleet.ndjson.gz | fleetd import
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		source := "-"
		if len(args) > 0 {
			source = args[0]
		}
		in, err := runz.Open(source)
		if err != nil {
			return err
		}
		defer in.Close()

		store, err := state.Open(datadir(), false)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case sig := <-common.Interrupted():
				slog.Warn("Received signal", "signal", sig)
				cancel()
			case <-ctx.Done():
			}
		}()

		res, err := api.Import(ctx, store, in)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d runs and %d drivers, skipped %d\n", res.Runs, res.Drivers, res.Skipped)
		return err
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
