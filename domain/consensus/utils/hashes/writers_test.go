package hashes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritersAreDomainSeparated(t *testing.T) {
	data := []byte("same data")
	writers := map[string]HashWriter{
		"block":   NewBlockHashWriter(),
		"root":    NewTransactionsRootWriter(),
		"txid":    NewTransactionIDWriter(),
		"signing": NewTransactionSigningHashWriter(),
		"account": NewAccountStateWriter(),
	}

	seen := make(map[string]string)
	for name, writer := range writers {
		writer.InfallibleWrite(data)
		digest := writer.Finalize().String()
		other, ok := seen[digest]
		require.False(t, ok, "%s and %s produced the same digest", name, other)
		seen[digest] = name
	}
}

func TestFinalizeIsDeterministic(t *testing.T) {
	first := NewBlockHashWriter()
	first.InfallibleWrite([]byte{1, 2, 3})
	second := NewBlockHashWriter()
	second.InfallibleWrite([]byte{1, 2})
	second.InfallibleWrite([]byte{3})
	require.True(t, first.Finalize().Equal(second.Finalize()))
}
