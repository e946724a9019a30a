package pebble

import (
	"fmt"

	"github.com/cockroachdb/pebble/v2"
)

var _ pebble.Logger = pebbleLogger{}

// pebbleLogger routes pebble's own messages to the KVDB subsystem. Pebble's
// informational chatter (flushes, compactions) is only shown at debug level.
type pebbleLogger struct{}

func (pebbleLogger) Infof(format string, args ...interface{}) {
	log.Debugf("pebble: "+format, args...)
}

func (pebbleLogger) Errorf(format string, args ...interface{}) {
	log.Errorf("pebble: "+format, args...)
}

// Fatalf must not return
func (pebbleLogger) Fatalf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Criticalf("pebble: %s", message)
	panic(message)
}
