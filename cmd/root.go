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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/fleetd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fleetd",
	Short: "Track fleet runs and reconstruct their routes",
	Long: `fleetd stores the runs reported by vehicle tracking clients
and rebuilds each run's route, leg by leg, between its stops.

Runs of the same vehicle, driver shift and day are merged into one aggregate route.

Configuration is read from $HOME/.fleetd/config.yaml and FLEETD_* environment variables,
eg. FLEETD_DATADIR, FLEETD_LOG_LEVEL, FLEETD_LOCATION.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fleetd/config.yaml)")
	pFlags.String("datadir", params.DatadirRoot, "Root directory of the run store")
	pFlags.String("log-level", "info", "Log level: debug, info, warn, error")
	pFlags.String("location", "Local", "Time zone deciding the calendar day of a run, eg. America/Chicago")

	for _, name := range []string{"datadir", "log-level", "location"} {
		cobra.CheckErr(viper.BindPFlag(name, pFlags.Lookup(name)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".fleetd"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FLEETD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	loc, err := time.LoadLocation(viper.GetString("location"))
	cobra.CheckErr(err)
	params.DefaultLocation = loc
}

// datadir is the configured store root, with any ~ expanded.
func datadir() string {
	d, err := homedir.Expand(viper.GetString("datadir"))
	cobra.CheckErr(err)
	return d
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid log level, using info:", err)
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("Config", "cmd", cmd.Name(), "args", args, "datadir", datadir(), "location", params.DefaultLocation.String())
}
