package utils

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// ConfigureLogger sets level ("debug", "info", ...) and format ("json" or "text").
func ConfigureLogger(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		log.SetLevel(lvl)
	}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Logger exposes the shared logger for components that need fields beyond LogEvent.
func Logger() *logrus.Logger {
	return log
}

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	log.WithFields(logrus.Fields{
		"module":     strings.ToUpper(module),
		"action":     action,
		"request_id": strings.TrimSpace(requestID),
	}).Info(message)
}

// LogWarn is LogEvent at warning level, used for best-effort side effects that failed.
func LogWarn(requestID, module, action, message string) {
	log.WithFields(logrus.Fields{
		"module":     strings.ToUpper(module),
		"action":     action,
		"request_id": strings.TrimSpace(requestID),
	}).Warn(message)
}
