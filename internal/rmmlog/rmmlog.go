// Package rmmlog is the monitor's structured logging front door.
//
// Each subsystem gets its own field-tagged entry, the same
// logrus.WithField("source", ...) shape used by
// virtcontainers/hypervisor in the wild to separate per-subsystem trace
// lines from one shared logger.
package rmmlog

import "github.com/sirupsen/logrus"

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Subsystem entries. Handlers and services log through these rather than
// the base logger so every line carries its source.
var (
	Granule  = base.WithField("source", "granule")
	Registry = base.WithField("source", "registry")
	RMI      = base.WithField("source", "rmi")
	SMC      = base.WithField("source", "smc")
)

// SetLevel changes the log level for every subsystem logger at once.
func SetLevel(lvl logrus.Level) {
	base.SetLevel(lvl)
}
