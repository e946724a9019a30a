package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const normalLogSize = 512

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile adds the full path and line of the logging callsite
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line of the logging callsite.
	// It takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// flagsFromEnv reads the comma separated LOGFLAGS environment variable
func flagsFromEnv() (flags uint32) {
	for _, f := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch f {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

const (
	// logsBuffer bounds the entries waiting for the writer goroutine
	logsBuffer = 256

	rotateThresholdKB = 100 * 1000
	maxRolls          = 8
)

// sink is one output of the backend, receiving every entry at or above
// minLevel
type sink struct {
	io.WriteCloser
	minLevel Level
}

type stdoutCloser struct{ io.Writer }

func (stdoutCloser) Close() error { return nil }

// Backend fans the entries of all subsystem loggers out to its sinks from a
// single goroutine, so lines are never interleaved.
type Backend struct {
	flag      uint32
	isRunning uint32
	sinks     []sink
	writeChan chan logEntry
	done      sync.WaitGroup
}

// NewBackend creates a new logger backend. Callsite flags come from the
// LOGFLAGS environment variable.
func NewBackend() *Backend {
	return &Backend{flag: flagsFromEnv(), writeChan: make(chan logEntry, logsBuffer)}
}

func (b *Backend) addSink(writer io.WriteCloser, minLevel Level) error {
	if b.IsRunning() {
		return errors.New("The logger is already running")
	}
	b.sinks = append(b.sinks, sink{WriteCloser: writer, minLevel: minLevel})
	return nil
}

// AddLogFile adds a rotated log file receiving entries at or above
// minLevel. The file and its directory are created as needed.
func (b *Backend) AddLogFile(logFile string, minLevel Level) error {
	if logDir := filepath.Dir(logFile); logDir != "." {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	r, err := rotator.New(logFile, rotateThresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.addSink(r, minLevel)
}

// AddStdout makes the backend echo every entry at or above minLevel to
// os.Stdout.
func (b *Backend) AddStdout(minLevel Level) error {
	return b.addSink(stdoutCloser{os.Stdout}, minLevel)
}

// Run launches the writer goroutine. It may only be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("The logger is already running")
	}
	b.done.Add(1)
	go func() {
		defer b.done.Done()
		defer func() {
			if err := recover(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				_, _ = fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		for entry := range b.writeChan {
			for _, s := range b.sinks {
				if entry.level >= s.minLevel {
					_, _ = s.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns true if backend.Run() has been called and false if it hasn't.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close flushes the pending entries and closes every sink
func (b *Backend) Close() {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 1, 0) {
		return
	}
	close(b.writeChan)
	b.done.Wait()
	for _, s := range b.sinks {
		_ = s.Close()
	}
}

// Logger returns a new logger for a particular subsystem that writes to the
// Backend b. A tag describes the subsystem and is included in all log
// messages. The logger uses the info verbosity level by default.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{level: uint32(LevelInfo), tag: subsystemTag, b: b, writeChan: b.writeChan}
}
