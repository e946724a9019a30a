package app

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/topodag/topod/infrastructure/config"
	"github.com/topodag/topod/infrastructure/db/database"
	"github.com/topodag/topod/infrastructure/db/database/ldb"
	"github.com/topodag/topod/infrastructure/db/database/pebble"
)

const (
	databaseDirName = "db"
	lockFileName    = ".lock"
	dbCacheSizeMiB  = 64
)

// lockDataDir takes an exclusive lock over the data directory so that two
// nodes never open the same database
func lockDataDir(dataDir string) (*flock.Flock, error) {
	err := os.MkdirAll(dataDir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	dataDirLock := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := dataDirLock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to lock %s", dataDir)
	}
	if !locked {
		return nil, errors.Errorf("the data directory %s is in use by another process", dataDir)
	}
	return dataDirLock, nil
}

func databasePath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, databaseDirName)
}

func removeDatabase(cfg *config.Config) error {
	dbPath := databasePath(cfg)
	log.Infof("Removing database at %s", dbPath)
	return errors.WithStack(os.RemoveAll(dbPath))
}

// openDB opens the database backend chosen by --dbtype, after checking that
// the stored data was written by a compatible version
func openDB(cfg *config.Config) (database.Database, error) {
	dbPath := databasePath(cfg)
	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = ensureDatabaseVersion(dbPath)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading %s database from '%s'", cfg.DbType, dbPath)
	backendPath := filepath.Join(dbPath, cfg.DbType)
	switch cfg.DbType {
	case "leveldb":
		return ldb.NewLevelDB(backendPath, dbCacheSizeMiB)
	case "pebble":
		return pebble.NewPebbleDB(backendPath, dbCacheSizeMiB)
	default:
		return nil, errors.Errorf("unknown database type %s", cfg.DbType)
	}
}
