package procmem

import (
	"os"

	"github.com/sirupsen/logrus"
)

// log is the package-wide logger. Every component derives a *logrus.Entry
// from it rather than calling fmt.Fprintf(os.Stderr, ...) the way the
// teacher codebase did through its VerboseMode flag.
var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLogLevel adjusts verbosity at runtime. Accepts logrus level names
// ("debug", "info", "warn", "error"); unknown names are ignored.
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	log.SetLevel(lvl)
}
