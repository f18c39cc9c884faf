package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	restore := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(restore) })

	tests := []struct {
		name       string
		production bool
		debug      bool
	}{
		{name: "development", production: false, debug: true},
		{name: "production", production: true, debug: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := InitLogger(tt.production)
			require.NoError(t, err)
			assert.Same(t, l, Logger)
			assert.Same(t, l, zap.L())
			assert.Equal(t, tt.debug, l.Core().Enabled(zapcore.DebugLevel))
		})
	}
}
