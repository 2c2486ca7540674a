package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ALEYI17/InfraSight_flops/pkg/types"
)

const (
	EnvRules         = "SDEFLOPS_RULES"
	EnvStrictMasking = "SDEFLOPS_STRICT_MASKING"
	EnvLogLevel      = "SDEFLOPS_LOG_LEVEL"
	EnvDumpRules     = "SDEFLOPS_DUMP_RULES"
	EnvBuffer        = "SDEFLOPS_BUFFER"
)

var ErrUsage = errors.New("expected either no arguments or both trace paths")

type Config struct {
	MixPath  string
	MaskPath string

	// RulesPath is an extra classification table appended to the built-in one.
	RulesPath string
	// StrictMasking turns full-width fallbacks into an error when no mask
	// profile was found.
	StrictMasking bool
	DumpRules     bool
	// DumpTo receives the rule table when DumpRules is set.
	DumpTo io.Writer

	LogLevel string
	Buffer   int
}

// LoadConfig reads the positional trace paths from args (without the program
// name) and the rest from the environment.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{
		MixPath:   types.DefaultMixFile,
		MaskPath:  types.DefaultMaskFile,
		RulesPath: os.Getenv(EnvRules),
		LogLevel:  "info",
		DumpTo:    os.Stderr,
	}

	switch len(args) {
	case 0:
	case 2:
		cfg.MixPath, cfg.MaskPath = args[0], args[1]
	default:
		return nil, ErrUsage
	}

	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}

	var err error
	if cfg.StrictMasking, err = envBool(EnvStrictMasking); err != nil {
		return nil, err
	}
	if cfg.DumpRules, err = envBool(EnvDumpRules); err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(os.Getenv(EnvBuffer)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s: want a non-negative integer, got %q", EnvBuffer, v)
		}
		cfg.Buffer = n
	}

	return cfg, nil
}

func envBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: want a boolean, got %q", key, v)
	}
	return b, nil
}
