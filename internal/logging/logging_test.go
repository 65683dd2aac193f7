package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		format  string
		debug   bool
	}{
		{"json", false, "json", false},
		{"default format", false, "", false},
		{"console verbose", true, "console", true},
		{"json verbose", true, "json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.verbose, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(false, "xml")
	assert.Error(t, err)
}
