// Command simhash-find-clusters reads newline-delimited decimal unsigned
// 64-bit fingerprints, groups them into near-duplicate clusters, and writes
// one bracketed, comma-separated cluster per line.
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
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coregx/simhash/internal/config"
	"github.com/coregx/simhash/internal/metrics"
	"github.com/coregx/simhash/iocodec"
	"github.com/coregx/simhash/simcluster"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cmd := &cobra.Command{
		Use:   "simhash-find-clusters",
		Short: "Group near-duplicate fingerprints into connected-component clusters",
	}
	cmd.Flags().Bool("summary", false, "print a table of cluster-size statistics to stderr")

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
		summary, _ := cmd.Flags().GetBool("summary")
		if code, err := execute(cmd.Context(), run, summary); err != nil {
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

func execute(ctx context.Context, run config.Run, summary bool) (int, error) {
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
	hashes, err := iocodec.ReadFingerprintLines(in)
	if err != nil {
		return int(config.ExitInputOpenError), fmt.Errorf("reading fingerprints: %w", err)
	}
	if reg != nil {
		reg.FingerprintsRead.Add(float64(len(hashes)))
	}
	slog.Info("fingerprints read", "count", humanize.Comma(int64(len(hashes))))

	start := time.Now()
	clusters, err := simcluster.FindClusters(hashes, run.Blocks, run.Distance)
	if err != nil {
		return int(config.ExitBlocksNotGreaterThan), fmt.Errorf("computing clusters: %w", err)
	}
	if reg != nil {
		reg.ScanDuration.Observe(time.Since(start).Seconds())
		reg.ClustersFound.Add(float64(len(clusters)))
	}
	slog.Info("clusters computed", "count", humanize.Comma(int64(len(clusters))), "elapsed", time.Since(start))

	if summary {
		printSummary(clusters)
	}

	out, closeOut, err := openOutput(run.Output)
	if err != nil {
		return int(config.ExitOutputOpenError), fmt.Errorf("opening output: %w", err)
	}
	defer closeOut()

	if err := iocodec.WriteClusters(out, clusters); err != nil {
		return int(config.ExitOutputOpenError), fmt.Errorf("writing clusters: %w", err)
	}

	return int(config.ExitOK), nil
}

// printSummary renders a small cluster-size distribution table to stderr,
// the way cmd/codefang renders its own terminal reports with go-pretty.
func printSummary(clusters []simcluster.Cluster) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"cluster index", "size"})
	for i, c := range clusters {
		t.AppendRow(table.Row{i, len(c)})
	}
	t.Render()
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
