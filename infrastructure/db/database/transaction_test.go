package database_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/topodag/topod/infrastructure/db/database"
)

func TestTransactionCommit(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionCommit", testTransactionCommit)
}

func testTransactionCommit(t *testing.T, db database.Database, testName string) {
	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	defer dbTx.RollbackUnlessClosed()

	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))
	value := []byte("value")
	err = dbTx.Put(key, value)
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}

	// The write must not be visible outside the transaction before Commit
	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: uncommitted key is unexpectedly visible", testName)
	}

	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}

	returnedValue, err := db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("%s: Get returned wrong value. Want: %s, got: %s",
			testName, value, returnedValue)
	}
}

func TestTransactionRollback(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionRollback", testTransactionRollback)
}

func testTransactionRollback(t *testing.T, db database.Database, testName string) {
	entries := populateDatabaseForTest(t, db, testName)

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Delete(entries[0].key)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Rollback()
	if err != nil {
		t.Fatalf("%s: Rollback unexpectedly failed: %s", testName, err)
	}

	exists, err := db.Has(entries[0].key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if !exists {
		t.Fatalf("%s: rolled back delete was applied", testName)
	}

	// RollbackUnlessClosed on a closed transaction is a no-op
	err = dbTx.RollbackUnlessClosed()
	if err != nil {
		t.Fatalf("%s: RollbackUnlessClosed unexpectedly failed: %s", testName, err)
	}

	err = dbTx.Put(entries[0].key, []byte("new"))
	if err == nil || !strings.Contains(err.Error(), "closed transaction") {
		t.Fatalf("%s: Put on a closed transaction returned wrong error: %v", testName, err)
	}
}

func TestGetNotFound(t *testing.T) {
	testForAllDatabaseTypes(t, "TestGetNotFound", testGetNotFound)
}

func testGetNotFound(t *testing.T, db database.Database, testName string) {
	_, err := db.Get(database.MakeBucket([]byte("bucket")).Key([]byte("missing")))
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Get returned wrong error: %v", testName, err)
	}

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	defer dbTx.RollbackUnlessClosed()
	_, err = dbTx.Get(database.MakeBucket([]byte("bucket")).Key([]byte("missing")))
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: transaction Get returned wrong error: %v", testName, err)
	}
}
