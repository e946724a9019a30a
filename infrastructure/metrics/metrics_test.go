package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersAreExported(t *testing.T) {
	BlockAccepted()
	OrderingCacheLookup("blue_sets", true)
	OrderingCacheLookup("blue_sets", false)
	OrderingCacheLookup("blue_sets", false)
	SetMaxTopoheight(7)

	require.GreaterOrEqual(t, testutil.ToFloat64(blocksAccepted), float64(1))
	require.GreaterOrEqual(t, testutil.ToFloat64(orderingCacheLookups.WithLabelValues("blue_sets", "miss")), float64(2))
	require.Equal(t, float64(7), testutil.ToFloat64(maxTopoheight))

	server, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)
	server.Start()
	defer func() { require.NoError(t, server.Stop()) }()

	response, err := http.Get("http://" + server.Address() + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "topod_max_topoheight 7"))
}
