package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()

	redCross   = red("✖")
	greenCheck = green("✔")
)

// BeQuietError is returned by commands that already logged their failure.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "command failed"
}

// logError logs err together with the server correlation id and returns a BeQuietError.
func logError(err error, correlation, msg string) error {
	ev := log.Error().Err(err)
	if correlation != "" {
		ev = ev.Str("correlation_id", correlation)
	}
	ev.Msgf("%s %s", redCross, msg)
	return BeQuietError{}
}

func logSuccess(format string, args ...any) {
	log.Info().Msgf("%s %s", greenCheck, fmt.Sprintf(format, args...))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// parseAttributes parses "key=value" pairs. Repeated keys collect multiple values.
func parseAttributes(pairs []string) (map[string][]string, error) {
	attrs := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute '%s', expected key=value", pair)
		}
		attrs[key] = append(attrs[key], value)
	}
	return attrs, nil
}
