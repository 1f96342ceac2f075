package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNewConsole(t *testing.T) {
	quiet := Must(NewConsole(false))
	assert.False(t, quiet.Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zap.WarnLevel))

	verbose := Must(NewConsole(true))
	assert.True(t, verbose.Core().Enabled(zap.DebugLevel))
}

func TestNamed_NilBase(t *testing.T) {
	assert.NotNil(t, Named(nil, "x"))
}
