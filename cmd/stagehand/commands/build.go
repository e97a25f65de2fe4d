package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/stagehand/internal/adapters/config"
	"go.trai.ch/stagehand/internal/adapters/detector"
	"go.trai.ch/stagehand/internal/app"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// boolOptions maps switch flags onto the option variables they override.
var boolOptions = []struct {
	flag, key, usage string
}{
	{"verbose", config.KeyVerbose, "Print the full command line of executed actions"},
	{"save-temps", config.KeySaveTemps, "Keep compiler intermediate files"},
	{"time-passes", config.KeyTimePasses, "Time compiler phases"},
	{"time-backend-passes", config.KeyTimeBackendPasses, "Time backend phases"},
	{"trace", config.KeyTrace, "Build compilers with tracing enabled"},
	{"disable-optimize", config.KeyDisableOptimize, "Build without optimization"},
	{"enable-debug", config.KeyEnableDebug, "Build with debug assertions"},
	{"enable-instrumentation", config.KeyEnableInstrumentation, "Wrap stage compilers with the instrumentation tool"},
	{"disable-instrumentation", config.KeyDisableInstrumentation, "Never wrap stage compilers"},
	{"bad-instrumentation", config.KeyBadInstrumentation, "Mark the platform as unable to run instrumentation"},
	{"disable-submodule-check", config.KeyDisableSubmoduleCheck, "Skip the submodule freshness probe"},
	{"keep-going", config.KeyKeepGoing, "Keep running independent actions after a failure"},
	{"force", config.KeyForce, "Run every action regardless of freshness"},
}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [goals...]",
		Short: "Build the given goals, or the default goal",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := optionOverrides(cmd)
			if err != nil {
				return err
			}
			mode, err := outputMode(cmd)
			if err != nil {
				return err
			}
			return c.app.Build(cmd.Context(), args, app.RunOptions{
				ConfigPath: c.configPath,
				EnvFile:    c.envFile,
				Overrides:  overrides,
				OutputMode: mode,
			})
		},
	}

	for _, o := range boolOptions {
		cmd.Flags().Bool(o.flag, false, o.usage)
	}
	cmd.Flags().StringArray("stage-flags", nil, "Extra compiler flags for a stage, as N=FLAGS")
	cmd.Flags().String("destdir", "", "Install under this directory instead of the prefix root")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of concurrent actions (default: number of CPUs)")
	cmd.Flags().Int("max-reconfigure", domain.DefaultMaxReconfigure, "Maximum configure re-runs per invocation")
	cmd.Flags().StringP("output-mode", "o", "auto", "Output mode: auto, tui, linear")
	cmd.Flags().Bool("ci", false, "Use linear output (alias for --output-mode=linear)")
	return cmd
}

func outputMode(cmd *cobra.Command) (detector.OutputMode, error) {
	if ci, _ := cmd.Flags().GetBool("ci"); ci {
		return detector.ModeLinear, nil
	}
	s, _ := cmd.Flags().GetString("output-mode")
	return detector.ParseMode(s)
}

// optionOverrides collects the flags set on the command line, keyed by the option
// variable they override. Unset flags leave the environment and env file in charge.
func optionOverrides(cmd *cobra.Command) (map[string]string, error) {
	flags := cmd.Flags()
	overrides := make(map[string]string)

	for _, o := range boolOptions {
		if flags.Changed(o.flag) {
			v, _ := flags.GetBool(o.flag)
			overrides[o.key] = strconv.FormatBool(v)
		}
	}

	if flags.Changed("destdir") {
		overrides[config.KeyDestDir], _ = flags.GetString("destdir")
	}
	if flags.Changed("jobs") {
		n, _ := flags.GetInt("jobs")
		overrides[config.KeyJobs] = strconv.Itoa(n)
	}
	if flags.Changed("max-reconfigure") {
		n, _ := flags.GetInt("max-reconfigure")
		overrides[config.KeyMaxReconfigure] = strconv.Itoa(n)
	}

	stageFlags, _ := flags.GetStringArray("stage-flags")
	for _, sf := range stageFlags {
		stage, value, ok := strings.Cut(sf, "=")
		n, err := strconv.Atoi(stage)
		if !ok || err != nil || n < int(domain.MinStage) || n > int(domain.MaxStage) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidOption, "expected N=FLAGS with N a stage"), "stage-flags", sf)
		}
		key := config.StageFlagsKey(domain.Stage(n))
		if prev, ok := overrides[key]; ok {
			value = prev + " " + value
		}
		overrides[key] = value
	}
	return overrides, nil
}
