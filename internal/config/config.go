// Package config binds the simhash-find-all and simhash-find-clusters CLI
// flags to viper, so options may also come from SIMHASH_-prefixed
// environment variables, following the flag/env binding pattern
// cmd/codefang's internal/config package uses for its own commands.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for simhash CLI settings,
// e.g. SIMHASH_BLOCKS, SIMHASH_DISTANCE.
const envPrefix = "SIMHASH"

// Run holds the resolved configuration for a single invocation of either
// CLI binary.
type Run struct {
	Blocks      int
	Distance    int
	Input       string
	Output      string
	MetricsAddr string
}

// Bind registers --blocks, --distance, --input, --output, and
// --metrics-addr on cmd, binds them to viperCfg (which also reads the
// matching SIMHASH_ environment variables), and returns a loader that
// resolves the final Run once flags have been parsed.
func Bind(cmd *cobra.Command, viperCfg *viper.Viper) func() (Run, error) {
	flags := cmd.Flags()
	flags.Int("blocks", 0, "number of bit blocks to use (required, > 0)")
	flags.Int("distance", 0, "maximum bit distance of matches (required, > 0)")
	flags.String("input", "", "path to input, or '-' for standard input (required)")
	flags.String("output", "", "path to output, or '-' for standard output (required)")
	flags.String("metrics-addr", "", "if set, expose Prometheus metrics on this address")

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viperCfg.AutomaticEnv()

	for _, name := range []string{"blocks", "distance", "input", "output", "metrics-addr"} {
		if err := viperCfg.BindPFlag(name, flags.Lookup(name)); err != nil {
			// BindPFlag only fails if the flag lookup itself is nil, which
			// cannot happen for the names just registered above.
			panic(fmt.Sprintf("config: bind %q: %v", name, err))
		}
	}

	return func() (Run, error) {
		run := Run{
			Blocks:      viperCfg.GetInt("blocks"),
			Distance:    viperCfg.GetInt("distance"),
			Input:       viperCfg.GetString("input"),
			Output:      viperCfg.GetString("output"),
			MetricsAddr: viperCfg.GetString("metrics-addr"),
		}
		return run, run.Validate()
	}
}

// ExitCode classifies a Run validation failure into the CLI's documented
// exit codes (2: blocks, 3: distance, 4: input, 5: output, 6: blocks<=distance).
type ExitCode int

// Exit codes matching spec §6.2/§6.3's option table.
const (
	ExitOK                   ExitCode = 0
	ExitUnknownOption        ExitCode = 1
	ExitBlocksMissing        ExitCode = 2
	ExitDistanceMissing      ExitCode = 3
	ExitInputMissing         ExitCode = 4
	ExitOutputMissing        ExitCode = 5
	ExitBlocksNotGreaterThan ExitCode = 6
	ExitInputOpenError       ExitCode = 7
	ExitOutputOpenError      ExitCode = 8
)

// ValidationError pairs a validation failure with the exit code the CLI
// should return for it.
type ValidationError struct {
	Code ExitCode
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validate checks the fields required by spec §6.2/§6.3, returning a
// *ValidationError carrying the matching exit code on failure.
func (r Run) Validate() error {
	switch {
	case r.Blocks <= 0:
		return &ValidationError{ExitBlocksMissing, "blocks must be provided and > 0"}
	case r.Distance <= 0:
		return &ValidationError{ExitDistanceMissing, "distance must be provided and > 0"}
	case r.Input == "":
		return &ValidationError{ExitInputMissing, "input must be provided and non-empty"}
	case r.Output == "":
		return &ValidationError{ExitOutputMissing, "output must be provided and non-empty"}
	case r.Blocks <= r.Distance:
		return &ValidationError{ExitBlocksNotGreaterThan,
			fmt.Sprintf("blocks (%d) must be greater than distance (%d)", r.Blocks, r.Distance)}
	}
	return nil
}
