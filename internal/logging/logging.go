package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// viper keys read by Init
const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// InitDefault sets up a console logger on stderr before flags and config are parsed.
func InitDefault() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// Init configures the global logger from viper. If out is nil, stderr is used.
func Init(out io.Writer) {
	if out == nil {
		out = os.Stderr
	}

	noColor := viper.GetBool(NoColorKey)
	if noColor {
		color.NoColor = true
	}

	levelStr := strings.ToLower(strings.TrimSpace(viper.GetString(LevelKey)))
	level, levelErr := zerolog.ParseLevel(levelStr)
	if levelErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	switch strings.ToLower(viper.GetString(FormatKey)) {
	case FormatJSON:
		zerolog.TimeFieldFormat = time.RFC3339Nano
		w = out
	default:
		w = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    noColor,
			TimeFormat: time.TimeOnly,
		}
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	if levelErr != nil {
		log.Warn().Str("level", levelStr).Msg("invalid log level, falling back to info")
	}
}
