package ghostdagmanager_test

import "math/big"

func bigWork(work int64) *big.Int {
	return big.NewInt(work)
}
