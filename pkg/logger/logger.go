package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the standard logrus logger used across the service.
func Init(level string) {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logrus.Warnf("Unknown log level %q, falling back to info", level)
	}
	logrus.SetLevel(lvl)
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
