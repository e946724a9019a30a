package serialization

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	relationsFieldParents  = 1
	relationsFieldChildren = 2
)

// SerializeBlockRelations encodes the parent/child relations of a block
func SerializeBlockRelations(relations *model.BlockRelations) []byte {
	e := &messageEncoder{}
	encodeHashes(e, relationsFieldParents, relations.Parents)
	encodeHashes(e, relationsFieldChildren, relations.Children)
	return e.buf
}

// DeserializeBlockRelations decodes data written by SerializeBlockRelations
func DeserializeBlockRelations(b []byte) (*model.BlockRelations, error) {
	relations := &model.BlockRelations{
		Parents:  make([]*externalapi.DomainHash, 0),
		Children: make([]*externalapi.DomainHash, 0),
	}
	err := decodeMessage(b, func(f *field) error {
		switch f.num {
		case relationsFieldParents:
			hash, err := f.hash()
			if err != nil {
				return err
			}
			relations.Parents = append(relations.Parents, hash)
		case relationsFieldChildren:
			hash, err := f.hash()
			if err != nil {
				return err
			}
			relations.Children = append(relations.Children, hash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return relations, nil
}
