// Package profiling serves net/http/pprof on a dedicated port
package profiling

import (
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/topodag/topod/infrastructure/logger"
	"github.com/topodag/topod/util/panics"
)

// Start serves the pprof endpoints at /debug/pprof/ on the given port until
// the process exits
func Start(port string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))

	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling.Start", func() {
		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		log.Error(http.ListenAndServe(listenAddr, mux))
	})
}
