package database

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/infrastructure/db/database"
)

// ErrNotFound denotes that the requested item was not
// found in the database.
var ErrNotFound = database.ErrNotFound

// IsNotFoundError checks whether an error is an ErrNotFound.
func IsNotFoundError(err error) bool {
	return database.IsNotFoundError(err)
}

// accessor translates consensus keys for whatever the storage layer reads
// and writes through, be it the database itself or an open transaction
type accessor struct {
	dataAccessor database.DataAccessor
}

func (a accessor) Get(key model.DBKey) ([]byte, error) {
	return a.dataAccessor.Get(toDatabaseKey(key))
}

func (a accessor) Has(key model.DBKey) (bool, error) {
	return a.dataAccessor.Has(toDatabaseKey(key))
}

func (a accessor) Put(key model.DBKey, value []byte) error {
	return a.dataAccessor.Put(toDatabaseKey(key), value)
}

func (a accessor) Delete(key model.DBKey) error {
	return a.dataAccessor.Delete(toDatabaseKey(key))
}

type dbManager struct {
	accessor
	db database.Database
}

// New wraps db as the model.DBManager the consensus stores work with
func New(db database.Database) model.DBManager {
	return &dbManager{accessor: accessor{dataAccessor: db}, db: db}
}

func (m *dbManager) Begin() (model.DBTransaction, error) {
	transaction, err := m.db.Begin()
	if err != nil {
		return nil, err
	}
	return &dbTransaction{accessor: accessor{dataAccessor: transaction}, transaction: transaction}, nil
}

type dbTransaction struct {
	accessor
	transaction database.Transaction
}

func (t *dbTransaction) Rollback() error {
	return t.transaction.Rollback()
}

func (t *dbTransaction) Commit() error {
	return t.transaction.Commit()
}

func (t *dbTransaction) RollbackUnlessClosed() error {
	return t.transaction.RollbackUnlessClosed()
}
