package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Init configures the global zerolog logger. Only the first call has effect.
func Init(appName, logLevel string) {
	initLogger(os.Stderr, appName, logLevel)
}

func initLogger(out io.Writer, appName, logLevel string) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(logLevel))
		zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
			parts := strings.Split(file, "/")
			return parts[len(parts)-1] + ":" + strconv.Itoa(line)
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "02-01-2006 15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-6s", i))
			},
		}).With().Timestamp().Caller().Str("applicationName", appName).Logger()
	})
}

func parseLevel(logLevel string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Msgf("Unknown log level %q, defaulting to INFO", logLevel)
		return zerolog.InfoLevel
	}
	return level
}
