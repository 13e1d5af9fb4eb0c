package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, "babyweight-test", "INFO")
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	log.Info().Msg("hello")
	log.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "INFO")
	assert.NotContains(t, out, "hidden")
}
