package lrucache

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

func hash(b byte) *externalapi.DomainHash {
	var arr [externalapi.DomainHashSize]byte
	arr[0] = b
	return externalapi.NewDomainHashFromByteArray(&arr)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	cache := New(2)
	cache.Add(hash(1), "one")
	cache.Add(hash(2), "two")
	_, ok := cache.Get(hash(1))
	require.True(t, ok)

	cache.Add(hash(3), "three")
	require.True(t, cache.Has(hash(1)))
	require.False(t, cache.Has(hash(2)))
	require.True(t, cache.Has(hash(3)))

	cache.Remove(hash(1))
	require.False(t, cache.Has(hash(1)))
	cache.Clear()
	require.False(t, cache.Has(hash(3)))
}

func TestZeroCapacityStoresNothing(t *testing.T) {
	cache := New(0)
	cache.Add(hash(1), "one")
	_, ok := cache.Get(hash(1))
	require.False(t, ok)
	cache.Remove(hash(1))
	cache.Clear()
}
