package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/topodag/topod/infrastructure/logger"
)

// exitHandlerTimeout bounds how long flushing the logs may delay the exit
const exitHandlerTimeout = 5 * time.Second

// HandlePanic must be deferred directly. On a panic it logs the panic
// value with the current stack, plus spawnerStackTrace when the panicking
// goroutine was started through GoroutineWrapperFunc, and exits with code 1.
func HandlePanic(log *logger.Logger, spawnerStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}
	exit(log, fmt.Sprintf("Fatal error: %+v", err), debug.Stack(), spawnerStackTrace)
}

// GoroutineWrapperFunc returns a spawn function for log's subsystem. Every
// goroutine it starts is named in trace logs and exits the process on panic.
func GoroutineWrapperFunc(log *logger.Logger) func(name string, f func()) {
	return func(name string, f func()) {
		spawnerStackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, spawnerStackTrace)
			log.Tracef("Started goroutine %s", name)
			f()
			log.Tracef("Ended goroutine %s", name)
		}()
	}
}

// Exit logs reason, flushes the logs and exits with code 1
func Exit(log *logger.Logger, reason string) {
	exit(log, reason, nil, nil)
}

func exit(log *logger.Logger, reason string, stackTrace []byte, spawnerStackTrace []byte) {
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		log.Criticalf("Exiting: %s", reason)
		if spawnerStackTrace != nil {
			log.Criticalf("Spawned at: %s", spawnerStackTrace)
		}
		if stackTrace != nil {
			log.Criticalf("Stack trace: %s", stackTrace)
		}
		log.Backend().Close()
	}()

	select {
	case <-flushed:
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Timed out flushing the logs before exiting")
	}
	os.Exit(1)
}
