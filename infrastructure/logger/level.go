package logger

import "strings"

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelTags are the tags printed in front of every log line
var levelTags = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// levelNames maps both the long names accepted by --loglevel and the
// printed tags to their level
var levelNames = map[string]Level{
	"trace": LevelTrace, "debug": LevelDebug, "info": LevelInfo, "warn": LevelWarn,
	"warning": LevelWarn, "error": LevelError, "critical": LevelCritical, "off": LevelOff,
}

func init() {
	for level, tag := range levelTags {
		levelNames[strings.ToLower(tag)] = Level(level)
	}
}

// LevelFromString returns the level named s, case-insensitively. Unknown
// names yield LevelInfo and false.
func LevelFromString(s string) (l Level, ok bool) {
	level, ok := levelNames[strings.ToLower(s)]
	if !ok {
		return LevelInfo, false
	}
	return level, true
}

// String returns the tag of the logger used in log messages, or "OFF" if
// the level will not produce any log output.
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelTags[l]
}
