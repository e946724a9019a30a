package database_test

import (
	"fmt"
	"testing"

	"github.com/topodag/topod/infrastructure/db/database"
	"github.com/topodag/topod/infrastructure/db/database/ldb"
	"github.com/topodag/topod/infrastructure/db/database/pebble"
)

// databaseBackends are all the backends selectable with --dbtype. Every
// test in this package runs against each of them.
var databaseBackends = []struct {
	name string
	open func(path string) (database.Database, error)
}{
	{name: "leveldb", open: func(path string) (database.Database, error) { return ldb.NewLevelDB(path, 8) }},
	{name: "pebble", open: func(path string) (database.Database, error) { return pebble.NewPebbleDB(path, 8) }},
}

func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for _, backend := range databaseBackends {
		backend := backend
		t.Run(backend.name, func(t *testing.T) {
			db, err := backend.open(t.TempDir())
			if err != nil {
				t.Fatalf("%s: opening %s failed: %s", testName, backend.name, err)
			}
			defer func() {
				err := db.Close()
				if err != nil {
					t.Fatalf("%s: closing %s failed: %s", testName, backend.name, err)
				}
			}()

			testFunc(t, db, fmt.Sprintf("%s: %s", backend.name, testName))
		})
	}
}

type keyValuePair struct {
	key   *database.Key
	value []byte
}

// populateDatabaseForTest puts key0..key9 with value0..value9 into a
// single bucket
func populateDatabaseForTest(t *testing.T, db database.Database, testName string) []keyValuePair {
	bucket := database.MakeBucket([]byte("bucket"))
	entries := make([]keyValuePair, 10)
	for i := range entries {
		entries[i] = keyValuePair{
			key:   bucket.Key([]byte(fmt.Sprintf("key%d", i))),
			value: []byte(fmt.Sprintf("value%d", i)),
		}
		err := db.Put(entries[i].key, entries[i].value)
		if err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}
	}
	return entries
}
