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
	"log"
	"log/slog"

	"github.com/rotblauer/fleetd/common"
	"github.com/rotblauer/fleetd/daemon/webd"
	"github.com/rotblauer/fleetd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var optHTTPAddr string
var optExportInflux bool

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves runs, routes and aggregates over HTTP,
accepts runs and pings from tracking clients on POST /populate,
and pushes recomputed routes to websocket clients on /socket.

Set FLEETD_TOKEN to require a bearer token for writes.
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("webd.Run")
		server, err := webd.NewWebDaemon(&params.WebDaemonConfig{
			DataDir: datadir(),
			ListenerConfig: params.ListenerConfig{
				Address: optHTTPAddr,
				Network: "tcp",
			},
			ExportInflux: optExportInflux,
		})
		if err != nil {
			log.Fatalln(err)
		}

		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			if err := server.Close(); err != nil {
				slog.Error("Failed to close web daemon", "error", err)
			}
		}()

		if err := server.Run(); err != nil {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	pFlags := webdCmd.PersistentFlags()
	pFlags.AddFlagSet(&pflag.FlagSet{})
	pFlags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	pFlags.BoolVar(&optExportInflux, "export-influx", false, "Write segment analytics to InfluxDB (INFLUXDB_* env) on every recomputed route")
}
