package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TASKFLOW_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOrDefault("TASKFLOW_TEST_VALUE", "fallback"))

	t.Setenv("TASKFLOW_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOrDefault("TASKFLOW_TEST_VALUE", "fallback"))
}

func TestEnvDurationOrDefault(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"unset", "", time.Second},
		{"valid", "250ms", 250 * time.Millisecond},
		{"malformed", "soon", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TASKFLOW_TEST_DURATION", tt.raw)
			assert.Equal(t, tt.want, EnvDurationOrDefault("TASKFLOW_TEST_DURATION", time.Second))
		})
	}
}

func TestEnvBoolOrDefault(t *testing.T) {
	t.Setenv("TASKFLOW_TEST_BOOL", "true")
	assert.True(t, EnvBoolOrDefault("TASKFLOW_TEST_BOOL", false))

	t.Setenv("TASKFLOW_TEST_BOOL", "maybe")
	assert.False(t, EnvBoolOrDefault("TASKFLOW_TEST_BOOL", false))
}
