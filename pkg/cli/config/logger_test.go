package config_test

import (
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/amlcase/pkg/cli/config"
	"github.com/secmon-lab/amlcase/pkg/utils/logging"
)

func TestParseLogFormat(t *testing.T) {
	testCases := []struct {
		name   string
		format string
		term   string
		want   logging.Format
		err    bool
	}{
		{name: "explicit json", format: "json", want: logging.FormatJSON},
		{name: "explicit console ignores term", format: "Console", term: "dumb", want: logging.FormatConsole},
		{name: "color terminal", term: "xterm-256color", want: logging.FormatConsole},
		{name: "no terminal", term: "", want: logging.FormatJSON},
		{name: "unknown", format: "yaml", err: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := config.ParseLogFormat(tc.format, tc.term)
			if tc.err {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tc.want)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := config.ParseLogLevel("DEBUG")
	gt.NoError(t, err)
	gt.Equal(t, level, slog.LevelDebug)

	level, err = config.ParseLogLevel("warning")
	gt.NoError(t, err)
	gt.Equal(t, level, slog.LevelWarn)

	_, err = config.ParseLogLevel("verbose")
	gt.Error(t, err)
}
