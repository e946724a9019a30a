// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"testing"

	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
)

// TestMustRegisterPanic ensures the mustRegister function panics when used to
// register an invalid network.
func TestMustRegisterPanic(t *testing.T) {
	t.Parallel()

	// Setup a defer to catch the expected panic to ensure it actually
	// paniced.
	defer func() {
		if err := recover(); err == nil {
			t.Error("mustRegister did not panic as expected")
		}
	}()

	// Intentionally try to register duplicate params to force a panic.
	mustRegister(&MainnetParams)
}

func TestByName(t *testing.T) {
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &SimnetParams, &DevnetParams} {
		found, err := ByName(params.Name)
		if err != nil {
			t.Fatalf("ByName(%s): %s", params.Name, err)
		}
		if found != params {
			t.Fatalf("ByName(%s) returned the params of %s", params.Name, found.Name)
		}
	}
	if _, err := ByName("banana"); err == nil {
		t.Fatalf("ByName unexpectedly found an unregistered network")
	}
}

func TestGenesisBlocks(t *testing.T) {
	seen := make(map[string]string)
	for _, params := range []*Params{&MainnetParams, &TestnetParams, &SimnetParams, &DevnetParams} {
		if !params.GenesisBlock.Header.IsGenesis() {
			t.Fatalf("%s: the genesis block has parents", params.Name)
		}
		if !consensushashing.BlockHash(params.GenesisBlock).Equal(params.GenesisHash) {
			t.Fatalf("%s: GenesisHash does not match the genesis block", params.Name)
		}
		if other, ok := seen[params.GenesisHash.String()]; ok {
			t.Fatalf("%s and %s share a genesis block", params.Name, other)
		}
		seen[params.GenesisHash.String()] = params.Name

		if len(params.GenesisAllocations) != len(params.DevAccountSeeds) {
			t.Fatalf("%s: %d allocations for %d development accounts", params.Name,
				len(params.GenesisAllocations), len(params.DevAccountSeeds))
		}
	}
	if len(MainnetParams.GenesisAllocations) != 0 {
		t.Fatalf("mainnet funds development accounts")
	}
}
