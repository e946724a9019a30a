package externalapi

// Account is the state of a single account
type Account struct {
	Balance uint64
	Nonce   uint64
}

// Clone returns a clone of Account
func (account *Account) Clone() *Account {
	if account == nil {
		return nil
	}
	clone := *account
	return &clone
}

// Equal returns whether account equals to other
func (account *Account) Equal(other *Account) bool {
	if account == nil || other == nil {
		return account == other
	}
	return *account == *other
}

// GenesisAllocation funds an account in the genesis state
type GenesisAllocation struct {
	Account AccountKey
	Balance uint64
}
