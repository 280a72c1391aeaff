package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		log := NewLogger(tt.input, false)
		assert.Equal(t, tt.want, log.GetLevel(), tt.input)
	}
}

func TestNewLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger("shouty", false)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerFormatterByMode(t *testing.T) {
	assert.IsType(t, &logrus.TextFormatter{}, NewLogger("info", true).Formatter)
	assert.IsType(t, &logrus.JSONFormatter{}, NewLogger("info", false).Formatter)
}
