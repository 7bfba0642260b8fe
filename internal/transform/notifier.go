package transform

import "github.com/sirupsen/logrus"

// Notifier delivers the operator diagnostic of a failed run.
type Notifier interface {
	Notify(title, subtitle, message string)
}

type NotifierFunc func(title, subtitle, message string)

func (f NotifierFunc) Notify(title, subtitle, message string) { f(title, subtitle, message) }

// LogNotifier writes diagnostics as error entries.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (n LogNotifier) Notify(title, subtitle, message string) {
	l := n.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	l.WithFields(logrus.Fields{"title": title, "subtitle": subtitle}).Error(message)
}
