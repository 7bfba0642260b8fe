package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Level  string    // logrus level name; empty means info
	Format string    // text | json; empty means text
	Output io.Writer // nil means stderr
}

// New builds a dedicated logger. stdout is left alone because the CLI may
// write the transformed document there.
func New(opt Options) (*logrus.Logger, error) {
	l := logrus.New()

	out := opt.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	level := logrus.InfoLevel
	if opt.Level != "" {
		lv, err := logrus.ParseLevel(opt.Level)
		if err != nil {
			return nil, err
		}
		level = lv
	}
	l.SetLevel(level)

	switch opt.Format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", opt.Format)
	}
	return l, nil
}
