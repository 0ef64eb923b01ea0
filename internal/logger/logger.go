// Package logger prints tagged, colored console lines for the trader.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
		PadLevelText:    true,
	})
	return l
}

// SetOutput redirects all log lines (used by tests).
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetLevel sets the minimum level by name ("debug", "info", "warn", "error").
// Unknown names leave the level unchanged.
func SetLevel(name string) {
	if lvl, err := logrus.ParseLevel(name); err == nil {
		log.SetLevel(lvl)
	}
}

func entry(tag string) *logrus.Entry {
	return log.WithField("tag", tag)
}

// Info logs a neutral message.
func Info(tag, msg string) {
	entry(tag).Info(msg)
}

// Success logs a completed step.
func Success(tag, msg string) {
	entry(tag).WithField("ok", true).Info(msg)
}

// Warn logs a recoverable problem, e.g. an upstream fetch that left stale data in place.
func Warn(tag, msg string) {
	entry(tag).Warn(msg)
}

// Error logs a failure.
func Error(tag, msg string) {
	entry(tag).Error(msg)
}

// Debug logs cache hits and other chatty details.
func Debug(tag, msg string) {
	entry(tag).Debug(msg)
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	line := strings.Repeat("=", 44)
	fmt.Fprintln(log.Out, line)
	fmt.Fprintf(log.Out, "  Albion Smart Trader  %s\n", version)
	fmt.Fprintln(log.Out, line)
}

// Section prints a visual separator with a title.
func Section(title string) {
	fmt.Fprintf(log.Out, "--- %s ---\n", title)
}

// Stats logs a single key/value metric.
func Stats(key string, value interface{}) {
	log.WithField(key, value).Info("stat")
}

// Server logs the listen address.
func Server(addr string) {
	entry("Server").Info(fmt.Sprintf("Listening on http://%s", addr))
}
