package main

import (
	"fmt"

	"github.com/itohio/mcuscope/firmware"
	"github.com/spf13/cobra"
)

var firmwareOut string

var firmwareCmd = &cobra.Command{
	Use:   "firmware",
	Short: "Print or save the reference device sketch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if firmwareOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), firmware.Sketch())
			return nil
		}
		if err := firmware.Save(firmwareOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Code saved to %s\n", firmwareOut)
		return nil
	},
}

func init() {
	firmwareCmd.Flags().StringVarP(&firmwareOut, "out", "o", "", "save the sketch to this file instead of printing it")
}
