// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"fmt"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/consensus/utils/txsigning"
)

// genesisBits is the compact difficulty target every block carries
const genesisBits = 0x207fffff

// newGenesisBlock builds a parentless, transactionless block. Networks tell
// their genesis blocks apart by timestamp and nonce.
func newGenesisBlock(timeInMilliseconds int64, nonce uint64) *externalapi.DomainBlock {
	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            0,
			Parents:            []*externalapi.DomainHash{},
			TransactionsRoot:   consensushashing.TransactionsRoot(nil),
			TimeInMilliseconds: timeInMilliseconds,
			Bits:               genesisBits,
			Nonce:              nonce,
		},
		Transactions: []*externalapi.DomainTransaction{},
	}
}

// genesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the main network.
var genesisBlock = newGenesisBlock(0x177a5f1dd32, 0x4)

// genesisHash is the hash of the first block in the block DAG for the main
// network (genesis block).
var genesisHash = consensushashing.BlockHash(genesisBlock)

var testnetGenesisBlock = newGenesisBlock(0x177a5f1dd32, 0x14)

var testnetGenesisHash = consensushashing.BlockHash(testnetGenesisBlock)

// devnetGenesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the development network.
var devnetGenesisBlock = newGenesisBlock(0x11e9db49828, 0x16ff1)

var devnetGenesisHash = consensushashing.BlockHash(devnetGenesisBlock)

var simnetGenesisBlock = newGenesisBlock(0x17c5f62fbb6, 0x3)

var simnetGenesisHash = consensushashing.BlockHash(simnetGenesisBlock)

// devAccountSeeds returns the seeds of count development accounts. Their
// keys are public knowledge, so only test networks fund them.
func devAccountSeeds(network string, count int) []string {
	seeds := make([]string, count)
	for i := range seeds {
		seeds[i] = fmt.Sprintf("topod-%s-account-%d", network, i)
	}
	return seeds
}

// allocationsFromSeeds funds the account of every seed with balance. It
// panics since it only ever runs on hard-coded seeds during package init.
func allocationsFromSeeds(seeds []string, balance uint64) []*externalapi.GenesisAllocation {
	allocations := make([]*externalapi.GenesisAllocation, len(seeds))
	for i, seed := range seeds {
		keyPair, err := txsigning.KeyPairFromSeed([]byte(seed))
		if err != nil {
			panic(fmt.Sprintf("failed deriving the account of seed %q: %s", seed, err))
		}
		accountKey, err := txsigning.AccountKeyFromKeyPair(keyPair)
		if err != nil {
			panic(fmt.Sprintf("failed deriving the account of seed %q: %s", seed, err))
		}
		allocations[i] = &externalapi.GenesisAllocation{Account: accountKey, Balance: balance}
	}
	return allocations
}
