package difficulty

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactToBig(t *testing.T) {
	tests := []struct {
		compact uint32
		want    int64
	}{
		{0x00000000, 0},
		{0x01003456, 0},
		{0x02008000, 0x80},
		{0x04123456, 0x12345600},
		{0x04923456, -0x12345600},
	}

	for _, test := range tests {
		require.Equal(t, test.want, CompactToBig(test.compact).Int64(), "compact %08x", test.compact)
	}
}

func TestBigToCompactRoundTrip(t *testing.T) {
	for _, compact := range []uint32{0x1d00ffff, 0x207fffff, 0x1b0404cb} {
		require.Equal(t, compact, BigToCompact(CompactToBig(compact)))
	}
}

func TestCalcWork(t *testing.T) {
	require.Zero(t, CalcWork(0).Sign())
	require.Zero(t, CalcWork(0x04923456).Sign(), "negative targets carry no work")

	easy := CalcWork(0x207fffff)
	hard := CalcWork(0x1d00ffff)
	require.Equal(t, 1, hard.Cmp(easy), "a smaller target must yield more work")
	require.Equal(t, big.NewInt(2), easy)
}
