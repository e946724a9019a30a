package winservice

import (
	"github.com/btcsuite/winsvc/svc"
	"github.com/topodag/topod/infrastructure/config"
)

// serviceMain runs a --service command, or hands main to the service
// control manager when topod was started by it. The returned flag tells
// the caller that the process ran as a service and should exit.
func serviceMain(main MainFunc, description *ServiceDescription, cfg *config.Config) (bool, error) {
	service := newService(main, description, cfg)

	if cfg.ServiceOptions != nil && cfg.ServiceOptions.ServiceCommand != "" {
		return true, service.performServiceCommand()
	}

	isInteractive, err := svc.IsAnInteractiveSession()
	if err != nil || isInteractive {
		return false, err
	}

	return true, service.Start()
}

func init() {
	WinServiceMain = serviceMain
}
