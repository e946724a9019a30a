package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/dagconfig"
)

// NetworkFlags selects the network. Without any of them the node runs
// mainnet.
type NetworkFlags struct {
	Testnet               bool   `long:"testnet" description:"Use the test network"`
	Simnet                bool   `long:"simnet" description:"Use the simulation test network"`
	Devnet                bool   `long:"devnet" description:"Use the development test network"`
	OverrideDAGParamsFile string `long:"override-dag-params-file" description:"Overrides DAG params (allowed only on devnet)"`

	// ActiveNetParams is a private copy of the selected network's params
	ActiveNetParams *dagconfig.Params
}

// overrideDAGParamsConfig is the JSON layout of --override-dag-params-file.
// Absent fields keep the devnet value.
type overrideDAGParamsConfig struct {
	K                                         *model.KType `json:"k"`
	MaxBlockParents                           *model.KType `json:"maxBlockParents"`
	MergeSetSizeLimit                         *uint64      `json:"mergeSetSizeLimit"`
	MaxBlockTransactions                      *int         `json:"maxBlockTransactions"`
	TargetTimePerBlockInMilliSeconds          *int64       `json:"targetTimePerBlockInMilliSeconds"`
	TimestampDeviationToleranceInMilliSeconds *int64       `json:"timestampDeviationToleranceInMilliSeconds"`
	PruningRetention                          *uint64      `json:"pruningRetention"`
}

// ResolveNetwork sets ActiveNetParams from the network flags and applies
// the devnet overrides file, if any. Selecting more than one network is an
// error.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	candidates := []struct {
		selected bool
		params   *dagconfig.Params
	}{
		{networkFlags.Testnet, &dagconfig.TestnetParams},
		{networkFlags.Simnet, &dagconfig.SimnetParams},
		{networkFlags.Devnet, &dagconfig.DevnetParams},
	}

	params := dagconfig.MainnetParams
	var selected []string
	for _, candidate := range candidates {
		if candidate.selected {
			params = *candidate.params
			selected = append(selected, candidate.params.Name)
		}
	}
	if len(selected) > 1 {
		err := errors.Errorf("only one network may be selected, got %s", strings.Join(selected, ", "))
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}
	networkFlags.ActiveNetParams = &params

	if networkFlags.OverrideDAGParamsFile == "" {
		return nil
	}
	if !networkFlags.Devnet {
		return errors.New("--override-dag-params-file is allowed only on devnet")
	}
	return networkFlags.overrideDAGParams()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideDAGParams() error {
	file, err := os.Open(networkFlags.OverrideDAGParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	overrides := &overrideDAGParamsConfig{}
	err = decoder.Decode(overrides)
	if err != nil {
		return errors.Wrapf(err, "failed to decode %s", networkFlags.OverrideDAGParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if overrides.K != nil {
		params.K = *overrides.K
	}
	if overrides.MaxBlockParents != nil {
		if *overrides.MaxBlockParents == 0 {
			return errors.New("maxBlockParents must be positive")
		}
		params.MaxBlockParents = *overrides.MaxBlockParents
	}
	if overrides.MergeSetSizeLimit != nil {
		if *overrides.MergeSetSizeLimit == 0 {
			return errors.New("mergeSetSizeLimit must be positive")
		}
		params.MergeSetSizeLimit = *overrides.MergeSetSizeLimit
	}
	if overrides.MaxBlockTransactions != nil {
		if *overrides.MaxBlockTransactions <= 0 {
			return errors.New("maxBlockTransactions must be positive")
		}
		params.MaxBlockTransactions = *overrides.MaxBlockTransactions
	}
	if overrides.TargetTimePerBlockInMilliSeconds != nil {
		params.TargetTimePerBlock = time.Duration(*overrides.TargetTimePerBlockInMilliSeconds) * time.Millisecond
	}
	if overrides.TimestampDeviationToleranceInMilliSeconds != nil {
		params.TimestampDeviationTolerance =
			time.Duration(*overrides.TimestampDeviationToleranceInMilliSeconds) * time.Millisecond
	}
	if overrides.PruningRetention != nil {
		if *overrides.PruningRetention == 0 {
			return errors.New("pruningRetention must be positive")
		}
		params.PruningRetention = *overrides.PruningRetention
	}
	return nil
}
