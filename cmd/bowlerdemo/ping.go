package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "connect to a device and issue one bcs.core._png",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := resolveConfig()

		dev, err := connectDevice(cfg)
		if err != nil {
			return err
		}
		defer dev.Close()

		if err := dev.Ping(); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		fmt.Println("pong")
		return nil
	},
}
