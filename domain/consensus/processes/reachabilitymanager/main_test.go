package reachabilitymanager_test

import (
	"os"
	"testing"

	"github.com/topodag/topod/infrastructure/logger"
)

// Reindexing logs at debug level; keep test output to warnings.
func TestMain(m *testing.M) {
	logger.SetLogLevels(logger.LevelWarn.String())
	logger.InitLogStdout(logger.LevelWarn)
	os.Exit(m.Run())
}
