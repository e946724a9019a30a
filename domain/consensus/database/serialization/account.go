package serialization

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	accountFieldBalance = 1
	accountFieldNonce   = 2
)

// SerializeAccount encodes an account's state
func SerializeAccount(account *externalapi.Account) []byte {
	e := &messageEncoder{}
	encodeAccount(e, account)
	return e.buf
}

func encodeAccount(e *messageEncoder, account *externalapi.Account) {
	e.uint(accountFieldBalance, account.Balance)
	e.uint(accountFieldNonce, account.Nonce)
}

// DeserializeAccount decodes data written by SerializeAccount
func DeserializeAccount(b []byte) (*externalapi.Account, error) {
	account := &externalapi.Account{}
	err := decodeMessage(b, func(f *field) error {
		switch f.num {
		case accountFieldBalance:
			if err := f.expectVarint(); err != nil {
				return err
			}
			account.Balance = f.value
		case accountFieldNonce:
			if err := f.expectVarint(); err != nil {
				return err
			}
			account.Nonce = f.value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
