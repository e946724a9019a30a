package serialization

import (
	"math/big"

	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	ghostdagFieldBlueScore          = 1
	ghostdagFieldBlueWork           = 2
	ghostdagFieldSelectedParent     = 3
	ghostdagFieldMergeSetBlues      = 4
	ghostdagFieldMergeSetReds       = 5
	ghostdagFieldBluesAnticoneSizes = 6

	anticoneSizeFieldBlueHash = 1
	anticoneSizeFieldSize     = 2
)

// SerializeBlockGHOSTDAGData encodes GHOSTDAG data for storage
func SerializeBlockGHOSTDAGData(data *model.BlockGHOSTDAGData) []byte {
	e := &messageEncoder{}
	e.uint(ghostdagFieldBlueScore, data.BlueScore())
	e.bytes(ghostdagFieldBlueWork, data.BlueWork().Bytes())
	if data.SelectedParent() != nil {
		e.bytes(ghostdagFieldSelectedParent, data.SelectedParent().ByteSlice())
	}
	encodeHashes(e, ghostdagFieldMergeSetBlues, data.MergeSetBlues())
	encodeHashes(e, ghostdagFieldMergeSetReds, data.MergeSetReds())

	// Written in mergeset order so the encoding is deterministic
	for _, blue := range data.MergeSetBlues() {
		size, ok := data.BluesAnticoneSizes()[*blue]
		if !ok {
			continue
		}
		blue := blue
		e.message(ghostdagFieldBluesAnticoneSizes, func(e *messageEncoder) {
			e.bytes(anticoneSizeFieldBlueHash, blue.ByteSlice())
			e.uint(anticoneSizeFieldSize, uint64(size))
		})
	}
	return e.buf
}

// DeserializeBlockGHOSTDAGData decodes data written by SerializeBlockGHOSTDAGData
func DeserializeBlockGHOSTDAGData(b []byte) (*model.BlockGHOSTDAGData, error) {
	var blueScore uint64
	blueWork := new(big.Int)
	var selectedParent *externalapi.DomainHash
	mergeSetBlues := make([]*externalapi.DomainHash, 0)
	mergeSetReds := make([]*externalapi.DomainHash, 0)
	bluesAnticoneSizes := make(map[externalapi.DomainHash]model.KType)

	err := decodeMessage(b, func(f *field) error {
		var err error
		switch f.num {
		case ghostdagFieldBlueScore:
			if err = f.expectVarint(); err == nil {
				blueScore = f.value
			}
		case ghostdagFieldBlueWork:
			if err = f.expectBytes(); err == nil {
				blueWork.SetBytes(f.data)
			}
		case ghostdagFieldSelectedParent:
			selectedParent, err = f.hash()
		case ghostdagFieldMergeSetBlues:
			var hash *externalapi.DomainHash
			if hash, err = f.hash(); err == nil {
				mergeSetBlues = append(mergeSetBlues, hash)
			}
		case ghostdagFieldMergeSetReds:
			var hash *externalapi.DomainHash
			if hash, err = f.hash(); err == nil {
				mergeSetReds = append(mergeSetReds, hash)
			}
		case ghostdagFieldBluesAnticoneSizes:
			err = decodeBlueAnticoneSize(f, bluesAnticoneSizes)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return model.NewBlockGHOSTDAGData(blueScore, blueWork, selectedParent,
		mergeSetBlues, mergeSetReds, bluesAnticoneSizes), nil
}

func decodeBlueAnticoneSize(f *field, bluesAnticoneSizes map[externalapi.DomainHash]model.KType) error {
	err := f.expectBytes()
	if err != nil {
		return err
	}
	var blueHash *externalapi.DomainHash
	var size uint64
	err = decodeMessage(f.data, func(f *field) error {
		var err error
		switch f.num {
		case anticoneSizeFieldBlueHash:
			blueHash, err = f.hash()
		case anticoneSizeFieldSize:
			if err = f.expectVarint(); err == nil {
				size = f.value
			}
		}
		return err
	})
	if err != nil {
		return err
	}
	if blueHash == nil {
		return errorf("blue anticone size entry is missing its hash")
	}
	kSize, err := uint64ToKType(size)
	if err != nil {
		return err
	}
	bluesAnticoneSizes[*blueHash] = kSize
	return nil
}

func uint64ToKType(n uint64) (model.KType, error) {
	convertedN := model.KType(n)
	if uint64(convertedN) != n {
		return 0, errorf("cannot convert %d to KType without losing data", n)
	}
	return convertedN, nil
}
