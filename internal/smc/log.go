package smc

import "github.com/sirupsen/logrus"

// LogGateway wraps another Gateway and logs every call. Grounded on the
// teacher's habit of wrapping low-level calls with an always-available
// trace line (machine.go's commented-out debug log.Printf calls around
// ioctls), generalized here into an always-on structured log entry
// rather than a print statement toggled by hand.
type LogGateway struct {
	Gateway
	log *logrus.Entry
}

// NewLogGateway wraps next, logging every call through log.
func NewLogGateway(next Gateway, log *logrus.Entry) *LogGateway {
	return &LogGateway{Gateway: next, log: log}
}

func (g *LogGateway) Call(cmd Code, args [4]uint64) ([4]uint64, error) {
	ret, err := g.Gateway.Call(cmd, args)

	entry := g.log.WithFields(logrus.Fields{"cmd": cmd, "args": args, "ret": ret})
	if err != nil {
		entry.WithError(err).Warn("smc call failed")
	} else {
		entry.Trace("smc call")
	}

	return ret, err
}
