package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitSetsDefault(t *testing.T) {
	Init()
	assert.NotNil(t, Default)
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENVIRONMENT", "")
	assert.Equal(t, zerolog.DebugLevel, getLogLevel())

	t.Setenv("ENVIRONMENT", "production")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, getLogLevel())

	t.Setenv("LOG_LEVEL", "not-a-level")
	assert.Equal(t, zerolog.InfoLevel, getLogLevel())
}

func TestWithField(t *testing.T) {
	Init()
	scoped := Default.WithField("component", "test")
	assert.NotNil(t, scoped)
	assert.NotSame(t, Default, scoped)
}
