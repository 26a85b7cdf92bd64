package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *logrus.Logger

// LogOptions controls where and how the global logger writes.
type LogOptions struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, file
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// InitLogger initializes the global logger
func InitLogger(opts LogOptions) error {
	logger := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(logLevel)

	// Set format
	if opts.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	logger.SetOutput(logOutput(opts))

	Logger = logger
	return nil
}

// logOutput returns a rotating file writer when file output is configured
func logOutput(opts LogOptions) io.Writer {
	if opts.Output == "file" && opts.File != "" {
		return &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
		}
	}
	return os.Stdout
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		// Initialize with defaults if not already initialized
		InitLogger(LogOptions{Level: "info", Format: "json", Output: "stdout"})
	}
	return Logger
}

// ComponentLogger returns an entry tagged with the component name
func ComponentLogger(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}
