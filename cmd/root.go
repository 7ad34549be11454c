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
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/rotblauer/trackplay/params"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trackplay",
	Short: "Replay GPX tracks together on one clock",
	Long: `trackplay loads GPX tracks and replays them against a shared playback clock.

Every loaded track is resolved to the point it had reached at the clock's current time,
so several recordings can be watched moving side by side, with distance and magnetic
bearing readouts measured from user placed markers.`,
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
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trackplay/trackplay.yaml)")
	pFlags.Int("verbosity", int(slog.LevelInfo), "Log level: -4 debug, 0 info, 4 warn, 8 error")
	if err := viper.BindPFlag("verbosity", pFlags.Lookup("verbosity")); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(params.DatadirRoot)
		viper.SetConfigType("yaml")
		viper.SetConfigName(params.ConfigFileName)
	}

	viper.SetEnvPrefix(params.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		slog.Info("Using config file", "file", viper.ConfigFileUsed())
	case errors.As(err, &notFound):
	default:
		slog.Warn("Failed to read config file", "error", err)
	}
}

// setDefaultSlog installs a text handler on stderr at the configured verbosity.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.Level(viper.GetInt("verbosity"))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("Logger configured", "command", cmd.Name(), "args", len(args), "level", level)
}
