// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"time"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	ghostdagK                   = 18
	maxBlockParents             = 10
	mergeSetSizeLimit           = 180
	maxBlockTransactions        = 1000
	timestampDeviationTolerance = 2 * time.Minute
	targetTimePerBlock          = 1 * time.Second
	pruningRetention            = 100_000
	devAccountBalance           = 1_000_000_000
	devAccountCount             = 64
)

// Params defines a topod network by its parameters
type Params struct {
	// K defines the K parameter for GHOSTDAG consensus algorithm.
	// See ghostdag.go for further details.
	K model.KType

	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisBlock defines the first block of the DAG.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// GenesisAllocations funds accounts in the genesis state
	GenesisAllocations []*externalapi.GenesisAllocation

	// DevAccountSeeds are the seeds of the funded development accounts.
	// Only networks meant for testing have any.
	DevAccountSeeds []string

	// BlockBits is the compact difficulty target of every block
	BlockBits uint32

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// TimestampDeviationTolerance is how far a block's timestamp may be
	// before its selected parent's
	TimestampDeviationTolerance time.Duration

	// MaxBlockParents is the maximum number of blocks a block may point to
	MaxBlockParents model.KType

	// MergeSetSizeLimit is the maximum number of blocks a block may merge,
	// its selected parent included
	MergeSetSizeLimit uint64

	MaxBlockTransactions int

	// PruningRetention is the number of topoheights kept above the
	// pruning point
	PruningRetention uint64

	// EnableSimulation allows building and inserting local blocks with
	// the development accounts
	EnableSimulation bool
}

func newParams(name string, genesisBlock *externalapi.DomainBlock, genesisHash *externalapi.DomainHash,
	devAccountSeeds []string, enableSimulation bool) Params {

	return Params{
		K:                           ghostdagK,
		Name:                        name,
		GenesisBlock:                genesisBlock,
		GenesisHash:                 genesisHash,
		GenesisAllocations:          allocationsFromSeeds(devAccountSeeds, devAccountBalance),
		DevAccountSeeds:             devAccountSeeds,
		BlockBits:                   genesisBits,
		TargetTimePerBlock:          targetTimePerBlock,
		TimestampDeviationTolerance: timestampDeviationTolerance,
		MaxBlockParents:             maxBlockParents,
		MergeSetSizeLimit:           mergeSetSizeLimit,
		MaxBlockTransactions:        maxBlockTransactions,
		PruningRetention:            pruningRetention,
		EnableSimulation:            enableSimulation,
	}
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = newParams("topod-mainnet", genesisBlock, genesisHash, nil, false)

// TestnetParams defines the network parameters for the test network.
var TestnetParams = newParams("topod-testnet", testnetGenesisBlock, testnetGenesisHash,
	devAccountSeeds("testnet", devAccountCount), false)

// SimnetParams defines the network parameters for the simulation test
// network. This network is intended for private use: its blocks are built
// locally from templates.
var SimnetParams = newParams("topod-simnet", simnetGenesisBlock, simnetGenesisHash,
	devAccountSeeds("simnet", devAccountCount), true)

// DevnetParams defines the network parameters for the development network.
var DevnetParams = newParams("topod-devnet", devnetGenesisBlock, devnetGenesisHash,
	devAccountSeeds("devnet", devAccountCount), true)

var (
	// ErrDuplicateNet describes an error where the parameters for a
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes an error where no network is registered
	// under the requested name
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a network. This may
// error with ErrDuplicateNet if the network is already registered (either
// due to a previous Register call, or the network being one of the default
// networks).
//
// Network parameters should be registered into this package by a main package
// as early as possible. Then, library packages may lookup networks or network
// parameters based on inputs and work regardless of the network being standard
// or not.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Name] = params

	return nil
}

// ByName returns the registered network called name
func ByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "%q", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&SimnetParams)
	mustRegister(&DevnetParams)
}
