package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the process logger. The level comes from the parameter,
// else ORASHIFT_LOG_LEVEL, else info.
func Setup(logLevel string) *logrus.Logger {
	logger := logrus.New()

	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("ORASHIFT_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)
	return logger
}
