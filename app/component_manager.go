package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/miningmanager"
	"github.com/topodag/topod/infrastructure/config"
	infrastructuredatabase "github.com/topodag/topod/infrastructure/db/database"
	"github.com/topodag/topod/infrastructure/metrics"
	"github.com/topodag/topod/util/panics"
)

// ComponentManager is a wrapper for all the topod services
type ComponentManager struct {
	cfg           *config.Config
	consensus     consensus.Consensus
	miningManager miningmanager.MiningManager
	metricsServer *metrics.Server
	simulator     *simulator

	simulationCancel context.CancelFunc
	simulationDone   sync.WaitGroup

	started, shutdown int32
}

// Start launches all the topod services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting topod")

	if a.metricsServer != nil {
		a.metricsServer.Start()
	}

	if a.simulator != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.simulationCancel = cancel
		a.simulationDone.Add(1)
		spawn("ComponentManager.simulator.run", func() {
			defer a.simulationDone.Done()
			err := a.simulator.run(ctx)
			if err != nil {
				panics.Exit(log, fmt.Sprintf("Error running the simulation: %+v", err))
			}
		})
	}
}

// Stop gracefully shuts down all the topod services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Topod is already in the process of shutting down")
		return
	}

	log.Warnf("Topod shutting down")

	if a.simulationCancel != nil {
		a.simulationCancel()
		a.simulationDone.Wait()
	}

	if a.metricsServer != nil {
		err := a.metricsServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the metrics server: %+v", err)
		}
	}
}

// Consensus returns the consensus run by this ComponentManager
func (a *ComponentManager) Consensus() consensus.Consensus {
	return a.consensus
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := consensus.NewConfig(cfg.ActiveNetParams)
	consensusConfig.Workers = cfg.Workers
	consensusConfig.OrderingCacheSize = cfg.OrderingCacheSize

	consensusInstance, err := consensus.NewFactory().NewConsensus(consensusConfig, db)
	if err != nil {
		return nil, err
	}
	miningManager := miningmanager.NewFactory().NewMiningManager(consensusInstance, &consensusConfig.Params, nil)

	var metricsServer *metrics.Server
	if cfg.MetricsListen != "" {
		metricsServer, err = metrics.NewServer(cfg.MetricsListen)
		if err != nil {
			return nil, err
		}
	}

	var simulatorInstance *simulator
	if cfg.Simulate > 0 {
		simulatorInstance, err = newSimulator(consensusInstance, miningManager,
			cfg.ActiveNetParams.DevAccountSeeds, cfg.Simulate, cfg.SimulateInterval)
		if err != nil {
			return nil, err
		}
	}

	return &ComponentManager{
		cfg:           cfg,
		consensus:     consensusInstance,
		miningManager: miningManager,
		metricsServer: metricsServer,
		simulator:     simulatorInstance,
	}, nil
}
