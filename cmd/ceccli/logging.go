package main

import (
	stdlog "log"

	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/sirupsen/logrus"
)

// bridgeLogger turns the CLI's own logrus.Logger into a logwrap.Logger, so
// library code driven by the CLI logs through the same seam it would in any
// other host, while the CLI itself keeps using logrus for its own output.
func bridgeLogger(l *logrus.Logger) logwrap.Logger {
	std := stdlog.New(l.WriterLevel(logrus.InfoLevel), "", 0)
	return logwrap.New(golog.Wrap(std))
}
