package pidlog

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

func formatWithPid(format string) string {
	pid := os.Getpid()

	return fmt.Sprintf("[%d] %s", pid, format)
}

// SetLevel parses a logrus level name ("debug", "info", ...).
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

func WithFields(fields log.Fields) *log.Entry {
	return log.WithFields(fields).WithField("self_pid", os.Getpid())
}

func Infof(format string, args ...interface{}) {
	log.Infof(formatWithPid(format), args...)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(formatWithPid(format), args...)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(formatWithPid(format), args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(formatWithPid(format), args...)
}
