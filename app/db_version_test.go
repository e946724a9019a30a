package app

import (
	"os"
	"testing"
)

func TestEnsureDatabaseVersion(t *testing.T) {
	dbPath := t.TempDir()

	err := ensureDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("ensureDatabaseVersion on a new database: %+v", err)
	}
	doesVersionFileExist, err := checkDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("checkDatabaseVersion: %+v", err)
	}
	if !doesVersionFileExist {
		t.Fatalf("the version file of a new database was not created")
	}

	// A second open sees the same version
	err = ensureDatabaseVersion(dbPath)
	if err != nil {
		t.Fatalf("ensureDatabaseVersion on an existing database: %+v", err)
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("2"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	err = ensureDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("a database of another version was accepted")
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("garbage"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("a malformed version file was accepted")
	}
}

func TestLockDataDir(t *testing.T) {
	dataDir := t.TempDir()

	dataDirLock, err := lockDataDir(dataDir)
	if err != nil {
		t.Fatalf("lockDataDir: %+v", err)
	}

	_, err = lockDataDir(dataDir)
	if err == nil {
		t.Fatalf("a locked data directory was locked twice")
	}

	err = dataDirLock.Unlock()
	if err != nil {
		t.Fatalf("Unlock: %s", err)
	}
	dataDirLock, err = lockDataDir(dataDir)
	if err != nil {
		t.Fatalf("lockDataDir after unlock: %+v", err)
	}
	dataDirLock.Unlock()
}
