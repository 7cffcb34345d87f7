package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/mcuscope/pkg/analysis"
	"github.com/itohio/mcuscope/pkg/export"
	"github.com/itohio/mcuscope/pkg/logging"
	"github.com/itohio/mcuscope/pkg/stats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	monitorOut      string
	captureOut      string
	captureDuration time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Acquire and analyze without a GUI until interrupted",
	Long: `monitor reads the device and logs every change of the dominant frequency.
On SIGINT or SIGTERM it stops the session, optionally exports the buffer
and prints summary statistics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer logging.Sync(e.logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runMonitor(ctx, e, monitorOut, cmd.OutOrStdout())
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Acquire for a fixed duration and export the buffer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if captureDuration <= 0 {
			return fmt.Errorf("duration must be positive, got %s", captureDuration)
		}
		e, err := setup()
		if err != nil {
			return err
		}
		defer logging.Sync(e.logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithTimeout(ctx, captureDuration)
		defer cancel()
		return runMonitor(ctx, e, captureOut, cmd.OutOrStdout())
	},
}

func init() {
	monitorCmd.Flags().StringVarP(&monitorOut, "out", "o", "", "export the buffer on exit (.csv or .parquet)")

	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "capture.csv", "export file (.csv or .parquet)")
	captureCmd.Flags().DurationVarP(&captureDuration, "duration", "d", 5*time.Second, "acquisition time")
}

// runMonitor acquires until ctx is done or the session fails, then exports
// to out (when set) and writes the summary to w.
func runMonitor(ctx context.Context, e *env, out string, w io.Writer) error {
	endpoint, err := e.endpoint()
	if err != nil {
		return err
	}

	lastBin := -1
	p := startPipeline(ctx, e, endpoint, func(f analysis.Frame) {
		if !f.HasSpectrum || !f.HasPeak || f.PeakBin == lastBin {
			return
		}
		lastBin = f.PeakBin
		e.logger.Info("[monitor] dominant frequency",
			zap.Int("bin", f.PeakBin),
			zap.Float64("hz", f.PeakHz),
			zap.Int("samples", f.Samples),
		)
	})

	select {
	case <-ctx.Done():
	case <-p.session.Done():
	}
	runErr := p.stop(stopTimeout)

	st := p.session.Stats()
	e.logger.Info("[monitor] session ended",
		zap.String("port", endpoint),
		zap.Uint64("bytes", st.BytesRead),
		zap.Uint64("samples", st.Samples),
		zap.Uint64("droppedLines", st.DroppedLines),
	)

	if err := report(e, p, out, w); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// report exports the final buffer and prints its statistics.
func report(e *env, p *pipeline, out string, w io.Writer) error {
	snapshot := p.buf.Snapshot()

	if out != "" {
		if err := export.WriteFile(out, snapshot, p.analyzer.Spectrum()); err != nil {
			return err
		}
		e.logger.Info("[monitor] exported",
			zap.String("file", out),
			zap.Stringer("format", export.FormatFor(out)),
			zap.Int("samples", len(snapshot)),
		)
	}

	summary, err := stats.Summarize(snapshot)
	switch {
	case errors.Is(err, stats.ErrEmptyInput):
		fmt.Fprintln(w, "No data available for analysis.")
	case err != nil:
		fmt.Fprintf(w, "Not enough data for analysis: %v\n", err)
	default:
		fmt.Fprintf(w, "%s\nSamples: %d\n", summary, summary.Count)
	}
	return nil
}
