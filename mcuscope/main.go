// mcuscope is a serial oscilloscope for microcontroller ADC streams.
// Without a subcommand it opens the GUI.
package main

import (
	"fmt"
	"os"

	"github.com/itohio/mcuscope/pkg/logging"
	"github.com/spf13/cobra"
)

// Command line flag variables
var (
	cfgFile  string // Configuration file path
	portFlag string // Serial port override
	mockFlag bool   // Use the simulated device
	logLevel string // Log level override
)

// rootCmd opens the GUI when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcuscope",
	Short: "Serial oscilloscope and spectrum viewer for microcontroller ADC streams",
	Long: `mcuscope reads newline-delimited ADC codes from a serial-attached
microcontroller, keeps a rolling window of calibrated voltages and shows
the trace together with the magnitude spectrum of the newest samples.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer logging.Sync(e.logger)

		runGUI(e)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "configuration file path")
	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "serial port override (e.g., COM3 or /dev/ttyUSB0)")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "use the simulated device instead of a serial port")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(monitorCmd, captureCmd, portsCmd, firmwareCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
