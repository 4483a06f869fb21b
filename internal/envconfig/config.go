// Package envconfig reads born's settings from the environment.
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
)

// LogLevel returns the log level for BORN_DEBUG.
// A true value enables debug logging; an integer n sets level -4n.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BORN_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Checkpointing returns the checkpointing strategy set by BORN_CHECKPOINTING
// ("none" or "balanced"). Invalid values fall back to none.
func Checkpointing() checkpoint.Strategy {
	s := Var("BORN_CHECKPOINTING")
	strategy, err := checkpoint.ParseStrategy(s)
	if err != nil {
		slog.Warn("invalid environment variable, using default", "key", "BORN_CHECKPOINTING", "value", s, "default", strategy)
	}
	return strategy
}

// AmbiguousPolicy returns the policy for ambiguous nodes set by BORN_AMBIGUOUS
// ("retain" or "recompute"). Invalid values fall back to retain.
func AmbiguousPolicy() checkpoint.AmbiguousPolicy {
	s := Var("BORN_AMBIGUOUS")
	policy, err := checkpoint.ParseAmbiguousPolicy(s)
	if err != nil {
		slog.Warn("invalid environment variable, using default", "key", "BORN_AMBIGUOUS", "value", s, "default", "retain")
	}
	return policy
}

// EnvVar describes one setting.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BORN_DEBUG":         {"BORN_DEBUG", LogLevel(), "Show additional debug information (e.g. BORN_DEBUG=1)"},
		"BORN_CHECKPOINTING": {"BORN_CHECKPOINTING", Checkpointing(), "Checkpointing strategy: none or balanced"},
		"BORN_AMBIGUOUS":     {"BORN_AMBIGUOUS", Var("BORN_AMBIGUOUS"), "Ambiguous node policy: retain or recompute"},
	}
}

// Var returns an environment variable stripped of surrounding quotes and spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
