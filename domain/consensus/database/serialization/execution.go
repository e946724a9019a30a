package serialization

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	executionFieldBlockHash = 1
	executionFieldStatuses  = 2
	executionFieldChanges   = 3
	executionFieldStateRoot = 4
	executionFieldWaves     = 5

	changeFieldAccount = 1
	changeFieldBefore  = 2
	changeFieldAfter   = 3
)

// SerializeBlockExecutionResult encodes the outcome of executing a block,
// including the account changes required to revert it
func SerializeBlockExecutionResult(result *externalapi.BlockExecutionResult) []byte {
	e := &messageEncoder{}
	e.bytes(executionFieldBlockHash, result.BlockHash.ByteSlice())

	statuses := make([]byte, len(result.Statuses))
	for i, status := range result.Statuses {
		statuses[i] = byte(status)
	}
	e.bytes(executionFieldStatuses, statuses)

	for _, change := range result.Changes {
		change := change
		e.message(executionFieldChanges, func(e *messageEncoder) {
			e.bytes(changeFieldAccount, change.Account[:])
			if change.Before != nil {
				e.message(changeFieldBefore, func(e *messageEncoder) { encodeAccount(e, change.Before) })
			}
			if change.After != nil {
				e.message(changeFieldAfter, func(e *messageEncoder) { encodeAccount(e, change.After) })
			}
		})
	}
	e.bytes(executionFieldStateRoot, result.StateRoot.ByteSlice())
	e.uint(executionFieldWaves, uint64(result.Waves))
	return e.buf
}

// DeserializeBlockExecutionResult decodes data written by SerializeBlockExecutionResult
func DeserializeBlockExecutionResult(b []byte) (*externalapi.BlockExecutionResult, error) {
	result := &externalapi.BlockExecutionResult{
		Statuses: make([]externalapi.TransactionStatus, 0),
		Changes:  make([]*externalapi.AccountChange, 0),
	}
	err := decodeMessage(b, func(f *field) error {
		var err error
		switch f.num {
		case executionFieldBlockHash:
			result.BlockHash, err = f.hash()
		case executionFieldStatuses:
			if err = f.expectBytes(); err == nil {
				for _, status := range f.data {
					result.Statuses = append(result.Statuses, externalapi.TransactionStatus(status))
				}
			}
		case executionFieldChanges:
			var change *externalapi.AccountChange
			if change, err = decodeAccountChange(f); err == nil {
				result.Changes = append(result.Changes, change)
			}
		case executionFieldStateRoot:
			result.StateRoot, err = f.hash()
		case executionFieldWaves:
			if err = f.expectVarint(); err == nil {
				result.Waves = int(f.value)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if result.BlockHash == nil || result.StateRoot == nil {
		return nil, errorf("execution result is missing its block hash or state root")
	}
	return result, nil
}

func decodeAccountChange(f *field) (*externalapi.AccountChange, error) {
	err := f.expectBytes()
	if err != nil {
		return nil, err
	}
	change := &externalapi.AccountChange{}
	err = decodeMessage(f.data, func(f *field) error {
		var err error
		switch f.num {
		case changeFieldAccount:
			change.Account, err = f.accountKey()
		case changeFieldBefore:
			if err = f.expectBytes(); err == nil {
				change.Before, err = DeserializeAccount(f.data)
			}
		case changeFieldAfter:
			if err = f.expectBytes(); err == nil {
				change.After, err = DeserializeAccount(f.data)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}
