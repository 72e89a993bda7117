package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuronrobotics/bowlerhost/pkg/bowler"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/registry/namespaces/dyio"
	"github.com/neuronrobotics/bowlerhost/pkg/bowler/wire"
)

var powerSet bool

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "read or set a DyIO's power state (neuronrobotics.dyio._pwr)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := resolveConfig()

		dev, err := connectDevice(cfg, func(d *bowler.Device) error {
			return d.SupportsNamespace(dyio.Contribution())
		})
		if err != nil {
			return err
		}
		defer dev.Close()

		pwr := dev.CommandTo().Namespace("neuronrobotics").Namespace("dyio")

		if powerSet {
			if _, err := pwr.Method("_pwr", wire.MethodCritical).Call(true); err != nil {
				return fmt.Errorf("setting power: %w", err)
			}
			fmt.Println("power set")
			return nil
		}

		result, err := pwr.Method("_pwr", wire.MethodGet).Call()
		if err != nil {
			return fmt.Errorf("reading power: %w", err)
		}
		fmt.Println("power state:", describeResult(result))
		return nil
	},
}

func init() {
	powerCmd.Flags().BoolVar(&powerSet, "set", false, "turn DyIO power on instead of reading its state")
}

func describeResult(r registry.Result) interface{} {
	if len(r.Positional) == 1 {
		return r.Positional[0]
	}
	return r.Positional
}
