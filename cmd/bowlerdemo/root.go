// Package main implements bowlerdemo, a small command-line client that
// dials a Bowler device over TCP or a Unix socket and issues a single
// RPC, in the spirit of cmd/rond and cmd/miniccc's minimal dial-and-run
// clients.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler/bowlerlog"
)

var (
	cfgFile string
	network string
	address string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "bowlerdemo",
	Short: "bowlerdemo talks to a Bowler device over a network transport",
	Long: `bowlerdemo is a reference client for pkg/bowler: it dials a device
over TCP or a Unix socket, performs the standard connect sequence, and
issues one RPC before disconnecting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml/json/toml)")
	rootCmd.PersistentFlags().StringVar(&network, "network", "", "transport network: tcp or unix (default tcp)")
	rootCmd.PersistentFlags().StringVar(&address, "address", "", "transport address, e.g. 127.0.0.1:9001 or /tmp/bowler.sock")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(ioCmd)
}

// Execute runs the root command. Called by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func resolveConfig() demoConfig {
	if network != "" {
		v.Set("network", network)
	}
	if address != "" {
		v.Set("address", address)
	}

	cfg, err := loadConfig(v, cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bowlerdemo: %v\n", err)
		os.Exit(1)
	}

	level, err := bowlerlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bowlerdemo: %v\n", err)
		os.Exit(1)
	}
	bowlerlog.Init(level)

	return cfg
}
