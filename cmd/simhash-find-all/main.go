// Command simhash-find-all reads a host-endian binary stream of 64-bit
// fingerprints, finds every pair within a tolerated Hamming distance, and
// writes them as a host-endian binary stream of 16-byte {low, high} records.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coregx/simhash/internal/config"
	"github.com/coregx/simhash/internal/metrics"
	"github.com/coregx/simhash/iocodec"
	"github.com/coregx/simhash/simmatch"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cmd := &cobra.Command{
		Use:   "simhash-find-all",
		Short: "Find all near-duplicate fingerprint pairs within a tolerated Hamming distance",
	}

	loader := config.Bind(cmd, viper.New())
	exitCode := 0

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		run, err := loader()
		if err != nil {
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				exitCode = int(verr.Code)
			} else {
				exitCode = int(config.ExitUnknownOption)
			}
			return err
		}
		if code, err := execute(cmd.Context(), run); err != nil {
			exitCode = code
			return err
		}
		return nil
	}

	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		if exitCode == 0 {
			exitCode = int(config.ExitUnknownOption)
		}
		return exitCode
	}
	return exitCode
}

func execute(ctx context.Context, run config.Run) (int, error) {
	var reg *metrics.Registry
	if run.MetricsAddr != "" {
		reg = metrics.NewRegistry()
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := reg.Serve(serveCtx, run.MetricsAddr); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	in, closeIn, err := openInput(run.Input)
	if err != nil {
		return int(config.ExitInputOpenError), fmt.Errorf("opening input: %w", err)
	}
	defer closeIn()

	slog.Info("reading fingerprints", "source", run.Input)
	hashes, err := iocodec.ReadFingerprints(in)
	if err != nil {
		return int(config.ExitInputOpenError), fmt.Errorf("reading fingerprints: %w", err)
	}
	if reg != nil {
		reg.FingerprintsRead.Add(float64(len(hashes)))
	}
	slog.Info("fingerprints read", "count", humanize.Comma(int64(len(hashes))))

	start := time.Now()
	matches, err := simmatch.FindAll(hashes, run.Blocks, run.Distance)
	if err != nil {
		return int(config.ExitBlocksNotGreaterThan), fmt.Errorf("computing matches: %w", err)
	}
	if reg != nil {
		reg.ScanDuration.Observe(time.Since(start).Seconds())
		reg.PairsEmitted.Add(float64(len(matches)))
	}
	slog.Info("matches computed", "count", humanize.Comma(int64(len(matches))), "elapsed", time.Since(start))

	out, closeOut, err := openOutput(run.Output)
	if err != nil {
		return int(config.ExitOutputOpenError), fmt.Errorf("opening output: %w", err)
	}
	defer closeOut()

	if err := iocodec.WriteMatches(out, matches); err != nil {
		return int(config.ExitOutputOpenError), fmt.Errorf("writing matches: %w", err)
	}

	return int(config.ExitOK), nil
}

func openInput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
