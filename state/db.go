package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, rent DepositCalculator, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "msigdb")
	ldb, err := dbm.NewDB("msig", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return newStateDB(ldb, dir, rent, logger)
}

// NewMemStateDB keeps the tree in memory. Nothing survives Close.
func NewMemStateDB(rent DepositCalculator, logger cmtlog.Logger) (db *StateDB, err error) {
	return newStateDB(dbm.NewMemDB(), "", rent, logger.With("module", "msigdb"))
}

func newStateDB(ldb dbm.DB, dir string, rent DepositCalculator, logger cmtlog.Logger) (db *StateDB, err error) {
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, rent, logger)
	err = st.load()
	if err != nil {
		logger.Error("from msigdb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) GetRecord(addr solana.PublicKey) (rec *Record, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	rec, err = db.state.Record(addr)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetNonce(addr solana.PublicKey) (nonce uint64, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	nonce, err = db.state.Nonce(addr)
	height = db.state.header.Height
	return
}
