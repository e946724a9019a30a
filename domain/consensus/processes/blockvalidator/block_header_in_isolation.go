package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/ruleerrors"
	"github.com/topodag/topod/domain/consensus/utils/hashset"
)

const maxBlockVersion = 0

// ValidateHeaderInIsolation validates block headers in isolation from the current
// consensus state
func (v *blockValidator) ValidateHeaderInIsolation(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) error {

	if header.Version > maxBlockVersion {
		return errors.Wrapf(ruleerrors.ErrBlockVersionIsUnknown, "block version %d is unknown", header.Version)
	}

	if header.Bits != v.blockBits {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty, "block bits %08x differ from the "+
			"network's %08x", header.Bits, v.blockBits)
	}

	err := v.checkParentsLimit(blockHash, header)
	if err != nil {
		return err
	}

	return checkParentsUniqueness(blockHash, header)
}

func (v *blockValidator) checkParentsLimit(blockHash *externalapi.DomainHash,
	header *externalapi.DomainBlockHeader) error {

	if len(header.Parents) == 0 && !blockHash.Equal(v.genesisHash) {
		return errors.Wrapf(ruleerrors.ErrNoParents, "block has no parents")
	}

	if len(header.Parents) > int(v.maxBlockParents) {
		return errors.Wrapf(ruleerrors.ErrTooManyParents, "block header has %d parents, but the maximum allowed amount "+
			"is %d", len(header.Parents), v.maxBlockParents)
	}
	return nil
}

func checkParentsUniqueness(blockHash *externalapi.DomainHash, header *externalapi.DomainBlockHeader) error {
	seen := hashset.New()
	for _, parent := range header.Parents {
		if parent.Equal(blockHash) {
			return errors.Wrapf(ruleerrors.ErrSelfReferencingParent, "block %s lists itself as a parent", blockHash)
		}
		if seen.Contains(parent) {
			return errors.Wrapf(ruleerrors.ErrDuplicateParents, "parent %s is listed more than once", parent)
		}
		seen.Add(parent)
	}
	return nil
}
