package cec

import (
	"log"

	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
)

// defaultLogger gives a caller that never configures a logwrap.Logger one
// anyway, wrapping the standard library's default logger, rather than a
// nil that panics on first use.
func defaultLogger() logwrap.Logger {
	return logwrap.New(golog.Wrap(log.Default()))
}
