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
	"log"
	"log/slog"

	"github.com/rotblauer/trackplay/common"
	"github.com/rotblauer/trackplay/daemon/webd"
	"github.com/rotblauer/trackplay/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// webdCmd represents the serve command
var webdCmd = &cobra.Command{
	Use:   "webd",
	Short: "Start the webserver",
	Long: `Serves a playback session over HTTP and a websocket.

Upload GPX files to POST /tracks, drive the clock with POST /playback/{start,pause,restart,seek,speed},
and connect to /socket to receive every frame as it is published.`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		config := webDaemonConfigFromViper()

		server, err := webd.NewWebDaemon(config)
		if err != nil {
			log.Fatalln(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			cancel()
		}()

		if err := server.Run(ctx); err != nil {
			log.Fatalln(err)
		}
	},
}

func webDaemonConfigFromViper() *params.WebDaemonConfig {
	config := params.DefaultWebDaemonConfig()
	config.Network = viper.GetString("webd.network")
	config.Address = viper.GetString("webd.address")
	config.Playback.Interval = viper.GetDuration("webd.interval")
	config.Playback.TimeScale = viper.GetFloat64("webd.time-scale")
	config.UploadRate = rate.Limit(viper.GetFloat64("webd.upload-rate"))
	config.UploadBurst = viper.GetInt("webd.upload-burst")
	return config
}

var webdPlaybackFlags = pflag.NewFlagSet("webd.playback", pflag.ContinueOnError)

func init() {
	rootCmd.AddCommand(webdCmd)

	defaults := params.DefaultWebDaemonConfig()

	webdPlaybackFlags.Duration("interval", defaults.Playback.Interval, "Wall clock time between playback ticks")
	webdPlaybackFlags.Float64("time-scale", defaults.Playback.TimeScale, "Virtual time per tick is interval * speed * time-scale")

	pFlags := webdCmd.PersistentFlags()
	pFlags.AddFlagSet(webdPlaybackFlags)
	pFlags.String("network", defaults.Network, "Network to listen on (tcp, tcp4, tcp6, unix)")
	pFlags.String("address", defaults.Address, "Address to listen on")
	pFlags.Float64("upload-rate", float64(defaults.UploadRate), "Uploads allowed per second")
	pFlags.Int("upload-burst", defaults.UploadBurst, "Upload burst size")

	for _, name := range []string{"network", "address", "interval", "time-scale", "upload-rate", "upload-burst"} {
		if err := viper.BindPFlag("webd."+name, pFlags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
