package envconfig

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"t":     slog.LevelDebug,
		"1":     slog.LevelDebug,
		"2":     slog.Level(-8),
		"-1":    slog.LevelWarn,
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("BORN_DEBUG", k)
			assert.Equal(t, v, LogLevel())
		})
	}
}

func TestCheckpointing(t *testing.T) {
	cases := map[string]checkpoint.Strategy{
		"":           checkpoint.NoCheckpointing,
		"none":       checkpoint.NoCheckpointing,
		"balanced":   checkpoint.BalancedCheckpointing,
		"'Balanced'": checkpoint.BalancedCheckpointing,
		"bogus":      checkpoint.NoCheckpointing,
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("BORN_CHECKPOINTING", k)
			assert.Equal(t, v, Checkpointing())
		})
	}
}

func TestAmbiguousPolicy(t *testing.T) {
	cases := map[string]checkpoint.Decision{
		"":          checkpoint.Retain,
		"retain":    checkpoint.Retain,
		"recompute": checkpoint.Recompute,
		"bogus":     checkpoint.Retain,
	}

	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv("BORN_AMBIGUOUS", k)
			assert.Equal(t, v, AmbiguousPolicy().Decide(nil))
		})
	}
}

func TestVar(t *testing.T) {
	t.Setenv("BORN_TEST_VAR", `  "quoted"  `)
	assert.Equal(t, "quoted", Var("BORN_TEST_VAR"))

	assert.Contains(t, AsMap(), "BORN_CHECKPOINTING")
}
