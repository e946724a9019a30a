package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// currentDatabaseVersion is bumped whenever the layout of the stored records
// changes in a way older databases can't be read with
const currentDatabaseVersion = 1

const versionFileName = "version"

// ensureDatabaseVersion creates the version file of a new database, and
// refuses databases written in any other version
func ensureDatabaseVersion(dbPath string) error {
	doesVersionFileExist, err := checkDatabaseVersion(dbPath)
	if err != nil {
		return err
	}
	if doesVersionFileExist {
		return nil
	}
	return createDatabaseVersionFile(dbPath)
}

func checkDatabaseVersion(dbPath string) (doesVersionFileExist bool, err error) {
	versionBytes, err := os.ReadFile(versionFilePath(dbPath))
	if err != nil {
		if os.IsNotExist(err) { // If version file doesn't exist, we assume that the database is new
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	databaseVersion, err := strconv.Atoi(strings.TrimSpace(string(versionBytes)))
	if err != nil {
		return true, errors.Wrapf(err, "malformed database version file %s", versionFilePath(dbPath))
	}

	if databaseVersion != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d. "+
			"Run with --reset-db to start over", databaseVersion, currentDatabaseVersion)
	}

	return true, nil
}

func createDatabaseVersionFile(dbPath string) error {
	versionString := strconv.Itoa(currentDatabaseVersion)
	err := os.WriteFile(versionFilePath(dbPath), []byte(versionString), 0600)
	return errors.WithStack(err)
}

func versionFilePath(dbPath string) string {
	return filepath.Join(dbPath, versionFileName)
}
