package consensus

import (
	"os"
	"testing"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/dagconfig"
	"github.com/topodag/topod/infrastructure/db/database"
	"github.com/topodag/topod/infrastructure/db/database/ldb"
	"github.com/topodag/topod/infrastructure/db/database/pebble"
)

type databaseOpener func(path string) (database.Database, error)

var databaseOpeners = map[string]databaseOpener{
	"leveldb": func(path string) (database.Database, error) {
		return ldb.NewLevelDB(path, 8)
	},
	"pebble": func(path string) (database.Database, error) {
		return pebble.NewPebbleDB(path, 8)
	},
}

func TestNewConsensus(t *testing.T) {
	for name, open := range databaseOpeners {
		t.Run(name, func(t *testing.T) {
			db, err := open(t.TempDir())
			if err != nil {
				t.Fatalf("error opening the database: %s", err)
			}
			defer db.Close()

			config := NewConfig(&dagconfig.DevnetParams)
			c, err := NewFactory().NewConsensus(config, db)
			if err != nil {
				t.Fatalf("error in NewConsensus: %+v", err)
			}

			selectedTip, err := c.GetVirtualSelectedTip()
			if err != nil {
				t.Fatalf("GetVirtualSelectedTip: %+v", err)
			}
			if !selectedTip.Equal(config.GenesisHash) {
				t.Fatalf("expected the selected tip of a fresh consensus to be genesis, got %s", selectedTip)
			}
		})
	}
}

func TestNewConsensusRejectsBadWorkerCount(t *testing.T) {
	db, err := pebble.NewPebbleDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("error in NewPebbleDB: %s", err)
	}
	defer db.Close()

	for _, workers := range []int{0, 65} {
		config := NewConfig(&dagconfig.DevnetParams)
		config.Workers = workers
		_, err := NewFactory().NewConsensus(config, db)
		if err == nil {
			t.Fatalf("expected NewConsensus to fail with %d workers", workers)
		}
	}
}

func TestConsensusResumesFromDatabase(t *testing.T) {
	for name, open := range databaseOpeners {
		t.Run(name, func(t *testing.T) {
			dataDir, err := os.MkdirTemp("", "TestConsensusResumesFromDatabase")
			if err != nil {
				t.Fatalf("MkdirTemp: %s", err)
			}
			defer os.RemoveAll(dataDir)

			config := NewConfig(&dagconfig.DevnetParams)
			db, err := open(dataDir)
			if err != nil {
				t.Fatalf("error opening the database: %s", err)
			}
			c, err := NewFactory().(*factory).newConsensus(config, db)
			if err != nil {
				t.Fatalf("error in newConsensus: %+v", err)
			}
			tc := &testConsensus{consensus: c, config: config, database: db}

			tip := config.GenesisHash
			for i := 0; i < 10; i++ {
				tip, _, err = tc.AddBlock([]*externalapi.DomainHash{tip}, nil)
				if err != nil {
					t.Fatalf("AddBlock: %+v", err)
				}
			}
			stateRoot, err := tc.StateRoot()
			if err != nil {
				t.Fatalf("StateRoot: %+v", err)
			}
			err = db.Close()
			if err != nil {
				t.Fatalf("Close: %+v", err)
			}

			db, err = open(dataDir)
			if err != nil {
				t.Fatalf("error reopening the database: %s", err)
			}
			defer db.Close()
			resumed, err := NewFactory().NewConsensus(config, db)
			if err != nil {
				t.Fatalf("error in NewConsensus: %+v", err)
			}

			selectedTip, err := resumed.GetVirtualSelectedTip()
			if err != nil {
				t.Fatalf("GetVirtualSelectedTip: %+v", err)
			}
			if !selectedTip.Equal(tip) {
				t.Fatalf("expected the resumed selected tip to be %s, got %s", tip, selectedTip)
			}
			maxTopoheight, err := resumed.GetMaxTopoheight()
			if err != nil {
				t.Fatalf("GetMaxTopoheight: %+v", err)
			}
			if maxTopoheight != 10 {
				t.Fatalf("expected max topoheight 10, got %d", maxTopoheight)
			}
			resumedStateRoot, err := resumed.StateRoot()
			if err != nil {
				t.Fatalf("StateRoot: %+v", err)
			}
			if !resumedStateRoot.Equal(stateRoot) {
				t.Fatalf("expected state root %s after resuming, got %s", stateRoot, resumedStateRoot)
			}
		})
	}
}
