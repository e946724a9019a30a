package metrics

import (
	"github.com/topodag/topod/infrastructure/logger"
	"github.com/topodag/topod/util/panics"
)

var log = logger.RegisterSubSystem("METR")
var spawn = panics.GoroutineWrapperFunc(log)
