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
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rotblauer/fleetd/api"
	"github.com/rotblauer/fleetd/conceptual"
	"github.com/rotblauer/fleetd/runz"
	"github.com/rotblauer/fleetd/state"
	"github.com/rotblauer/fleetd/types/runtrack"
	"github.com/spf13/cobra"
)

var optExportStatus string
var optExportVehicle string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export drivers and runs as newline-delimited JSON",
	Long: `
Writes every driver, then the selected runs, to the file or stdout.
A file ending in .gz is gzipped. The output can be read back with fleetd import.

Examples:

  fleetd export backup.ndjson.gz
  fleetd export --status COMPLETED --vehicle truck-7 > truck-7.ndjson
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		store, err := state.Open(datadir(), true)
		if err != nil {
			return err
		}
		defer store.Close()

		var out io.WriteCloser = nopWriteCloser{cmd.OutOrStdout()}
		if len(args) > 0 && args[0] != "-" {
			if strings.HasSuffix(args[0], ".gz") {
				out, err = runz.NewGZFileWriter(args[0], nil)
			} else {
				out, err = os.Create(args[0])
			}
			if err != nil {
				return err
			}
		}

		res, err := api.Export(store, runtrack.RunFilter{
			Status:    runtrack.RunStatus(optExportStatus),
			VehicleID: conceptual.VehicleID(optExportVehicle),
		}, out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		slog.Info("Export done", "runs", res.Runs, "drivers", res.Drivers)
		return nil
	},
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&optExportStatus, "status", "", "Only runs with this status, IN_PROGRESS or COMPLETED")
	exportCmd.Flags().StringVar(&optExportVehicle, "vehicle", "", "Only runs of this vehicle")
}
