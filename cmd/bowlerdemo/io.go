package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/bcsio"
)

var ioSetValue int

var ioCmd = &cobra.Command{
	Use:   "io <channel>",
	Short: "read or write one bcs.io channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return fmt.Errorf("channel must be a uint8: %w", err)
		}

		cfg := resolveConfig()
		dev, err := connectDevice(cfg, func(d *bowler.Device) error {
			return d.SupportsNamespace(bcsio.Contribution())
		})
		if err != nil {
			return err
		}
		defer dev.Close()

		channelHandle := dev.CommandTo().Namespace("bcs").Namespace("io")

		if cmd.Flags().Changed("set") {
			if _, err := channelHandle.RPC("set").Call(uint8(channel), int16(ioSetValue)); err != nil {
				return fmt.Errorf("setting channel %d: %w", channel, err)
			}
			fmt.Printf("channel %d set to %d\n", channel, ioSetValue)
			return nil
		}

		result, err := channelHandle.RPC("get").Call(uint8(channel))
		if err != nil {
			return fmt.Errorf("reading channel %d: %w", channel, err)
		}
		fmt.Printf("channel %d: %v\n", channel, describeResult(result))
		return nil
	},
}

func init() {
	ioCmd.Flags().IntVar(&ioSetValue, "set", 0, "write this value to the channel instead of reading it")
}
