package ringlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"WARNING", WARN, false},
		{"error", ERROR, false},
		{"fatal", DEBUG, true},
		{"", DEBUG, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseAllocationStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseAllocationStrategy("zero_alloc")
	require.NoError(t, err)
	assert.Equal(t, AllocZero, s)

	s, err = ParseAllocationStrategy("dynamic")
	require.NoError(t, err)
	assert.Equal(t, AllocDynamic, s)

	s, err = ParseAllocationStrategy("auto")
	require.NoError(t, err)
	assert.Equal(t, AllocAuto, s)

	_, err = ParseAllocationStrategy("static")
	assert.Error(t, err)
}

func TestParseRotationStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseRotationStrategy("size")
	require.NoError(t, err)
	assert.Equal(t, RotateBySize, s)

	s, err = ParseRotationStrategy("time")
	require.NoError(t, err)
	assert.Equal(t, RotateByTime, s)

	s, err = ParseRotationStrategy("both")
	require.NoError(t, err)
	assert.Equal(t, RotateBoth, s)

	_, err = ParseRotationStrategy("never")
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var config LoggerConfig
	config.applyDefaults()

	assert.Equal(t, defaultFileName, config.Filename)
	assert.Equal(t, defaultQueueCapacity, config.QueueCapacity)
	assert.Equal(t, defaultBatchSize, config.BatchSize)
	assert.Equal(t, defaultIdleSleepMicros, config.IdleSleepMicros)
	assert.Equal(t, defaultMaxBytes, config.Rotation.MaxSizeBytes)
	assert.Equal(t, defaultMaxFiles, config.Rotation.MaxFiles)
	assert.NotEqual(t, AllocAuto, config.AllocationStrategy, "Auto must resolve at init")

	switch config.AllocationStrategy {
	case AllocZero:
		assert.Equal(t, defaultZeroBufferSize, config.FormatBufferSize)
	case AllocDynamic:
		assert.Equal(t, defaultDynBufferSize, config.FormatBufferSize)
	}
}

func TestApplyDefaultsRoundsCapacity(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.QueueCapacity = 1000
	config.applyDefaults()
	assert.Equal(t, 1024, config.QueueCapacity)
}

func TestApplyDefaultsTrimsFilename(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Filename = "  myapp.log"
	config.applyDefaults()
	assert.Equal(t, "myapp", config.Filename)
}

func TestFormatBufferFloor(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.FormatBufferSize = 16 // too small to hold even a header
	config.applyDefaults()
	assert.Equal(t, minFormatBufferSize, config.FormatBufferSize)
}
