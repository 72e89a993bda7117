package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	initOutPath string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "write a default bowlerdemo.yaml config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := writeDefaultConfig(initOutPath, initForce); err != nil {
			return err
		}
		fmt.Println("wrote", initOutPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initOutPath, "out", "bowlerdemo.yaml", "path to write the default config to")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}
