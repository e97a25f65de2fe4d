package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// Option keys. Every key except the override-only ones is also read from the
// environment and the env file.
const (
	KeyVerbose                = "VERBOSE"
	KeySaveTemps              = "SAVE_TEMPS"
	KeyTimePasses             = "TIME_PASSES"
	KeyTimeBackendPasses      = "TIME_BACKEND_PASSES"
	KeyTrace                  = "TRACE"
	KeyDisableOptimize        = "CFG_DISABLE_OPTIMIZE"
	KeyEnableDebug            = "CFG_ENABLE_DEBUG"
	KeyEnableInstrumentation  = "CFG_ENABLE_INSTRUMENTATION"
	KeyDisableInstrumentation = "CFG_DISABLE_INSTRUMENTATION"
	KeyBadInstrumentation     = "CFG_BAD_INSTRUMENTATION"
	KeyDisableSubmoduleCheck  = "CFG_DISABLE_MANAGE_SUBMODULES"
	KeyDestDir                = "DESTDIR"
	KeyJobs                   = "JOBS"
	KeyKeepGoing              = "KEEP_GOING"

	// KeyForce and KeyMaxReconfigure are only honoured as overrides.
	KeyForce          = "FORCE"
	KeyMaxReconfigure = "MAX_RECONFIGURE"
)

var envKeys = []string{
	KeyVerbose, KeySaveTemps, KeyTimePasses, KeyTimeBackendPasses, KeyTrace,
	KeyDisableOptimize, KeyEnableDebug, KeyEnableInstrumentation, KeyDisableInstrumentation,
	KeyBadInstrumentation, KeyDisableSubmoduleCheck, KeyDestDir, KeyJobs, KeyKeepGoing,
}

// StageFlagsKey names the extra-flags variable of a stage.
func StageFlagsKey(s domain.Stage) string {
	return fmt.Sprintf("STAGE%d_FLAGS", int(s))
}

// OptionsLoader implements ports.OptionsLoader.
type OptionsLoader struct {
	lookup func(string) (string, bool)
}

// NewOptionsLoader creates an OptionsLoader reading the process environment.
func NewOptionsLoader() *OptionsLoader {
	return &OptionsLoader{lookup: os.LookupEnv}
}

// Load merges the env file, the process environment and the overrides.
func (l *OptionsLoader) Load(envFile string, overrides map[string]string) (domain.Options, error) {
	values := make(map[string]string)

	if envFile != "" {
		file, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return domain.Options{}, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", envFile)
		default:
			for k, v := range file {
				values[k] = v
			}
		}
	}

	stageKeys := make(map[string]bool)
	keys := slices.Clone(envKeys)
	for s := domain.MinStage; s <= domain.MaxStage; s++ {
		stageKeys[StageFlagsKey(s)] = true
		keys = append(keys, StageFlagsKey(s))
	}
	for _, k := range keys {
		if v, ok := l.lookup(k); ok {
			values[k] = v
		}
	}
	for k, v := range overrides {
		// Stage flags given on the command line follow the configured ones.
		if prev := strings.TrimSpace(values[k]); stageKeys[k] && prev != "" {
			v = prev + " " + v
		}
		values[k] = v
	}

	return parseOptions(values, overrides)
}

func parseOptions(values, overrides map[string]string) (domain.Options, error) {
	opts := domain.Options{
		Verbose:                truthy(values[KeyVerbose]),
		SaveTemps:              truthy(values[KeySaveTemps]),
		TimePasses:             truthy(values[KeyTimePasses]),
		TimeBackendPasses:      truthy(values[KeyTimeBackendPasses]),
		Trace:                  truthy(values[KeyTrace]),
		DisableOptimize:        truthy(values[KeyDisableOptimize]),
		EnableDebug:            truthy(values[KeyEnableDebug]),
		EnableInstrumentation:  truthy(values[KeyEnableInstrumentation]),
		DisableInstrumentation: truthy(values[KeyDisableInstrumentation]),
		BadInstrumentation:     truthy(values[KeyBadInstrumentation]),
		DisableSubmoduleCheck:  truthy(values[KeyDisableSubmoduleCheck]),
		DestDir:                values[KeyDestDir],
		KeepGoing:              truthy(values[KeyKeepGoing]),
		Force:                  truthy(overrides[KeyForce]),
	}

	var err error
	if opts.Jobs, err = intOption(KeyJobs, values[KeyJobs]); err != nil {
		return domain.Options{}, err
	}
	if opts.MaxReconfigure, err = intOption(KeyMaxReconfigure, overrides[KeyMaxReconfigure]); err != nil {
		return domain.Options{}, err
	}

	for s := domain.MinStage; s <= domain.MaxStage; s++ {
		if flags := strings.Fields(values[StageFlagsKey(s)]); len(flags) > 0 {
			if opts.StageFlags == nil {
				opts.StageFlags = make(map[domain.Stage][]string)
			}
			opts.StageFlags[s] = flags
		}
	}
	return opts, nil
}

// truthy treats any value other than an explicit negative as set.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

func intOption(key, v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidOption, "expected a non-negative integer"), "option", key), "value", v)
	}
	return n, nil
}
