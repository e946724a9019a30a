package consensushashing

import (
	"encoding/binary"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/hashes"
)

type elementWriter struct {
	hashes.HashWriter
	scratch [8]byte
}

func (w *elementWriter) writeUint16(n uint16) {
	binary.LittleEndian.PutUint16(w.scratch[:2], n)
	w.InfallibleWrite(w.scratch[:2])
}

func (w *elementWriter) writeUint32(n uint32) {
	binary.LittleEndian.PutUint32(w.scratch[:4], n)
	w.InfallibleWrite(w.scratch[:4])
}

func (w *elementWriter) writeUint64(n uint64) {
	binary.LittleEndian.PutUint64(w.scratch[:], n)
	w.InfallibleWrite(w.scratch[:])
}

func (w *elementWriter) writeHash(hash *externalapi.DomainHash) {
	w.InfallibleWrite(hash.ByteSlice())
}

// writeVarBytes writes a length prefix followed by b
func (w *elementWriter) writeVarBytes(b []byte) {
	w.writeUint64(uint64(len(b)))
	w.InfallibleWrite(b)
}
