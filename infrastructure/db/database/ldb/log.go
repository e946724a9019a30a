package ldb

import "github.com/topodag/topod/infrastructure/logger"

var log = logger.RegisterSubSystem("KVDB")
