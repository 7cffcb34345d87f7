package main

import (
	"fmt"
	"io"

	"github.com/itohio/mcuscope/pkg/mcu"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports, marking the auto-detected device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := mcu.Ports()
		if err != nil {
			return err
		}
		writePorts(cmd.OutOrStdout(), ports)
		return nil
	},
}

func writePorts(w io.Writer, ports []mcu.Port) {
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found.")
		return
	}

	detected, ok := mcu.Match(ports, mcu.KnownMarkers)
	for _, p := range ports {
		mark := " "
		if ok && p.Name == detected.Name {
			mark = "*"
		}
		usb := ""
		if p.IsUSB {
			usb = fmt.Sprintf(" [%s:%s]", p.VID, p.PID)
		}
		fmt.Fprintf(w, "%s %-20s %s%s\n", mark, p.Name, p.Description, usb)
	}
}
