package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	ModifiedFlagNew   = 1 << 0
	ModifiedFlagMod   = 1 << 1
	ModifiedFlagNonce = 1 << 2
)

var (
	KeyState      = "s"
	KeyRecordBody = "r%x"
	KeyNonce      = "n%x"
)

var (
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrStateHeightUnmatched = errors.New("state height unmatched")
)

// State is the record ledger at one height. Reads fall through the caches to
// the tree; writes stay in the caches until Update.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	rent   DepositCalculator

	header   *StateHeader
	records  map[solana.PublicKey]*Record
	nonces   map[solana.PublicKey]uint64
	modified map[solana.PublicKey]uint32
}

func newState(db *iavl.MutableTree, rent DepositCalculator, logger cmtlog.Logger) *State {
	return &State{
		logger:   logger,
		db:       db,
		dbVer:    0,
		rent:     rent,
		header:   new(StateHeader),
		records:  make(map[solana.PublicKey]*Record),
		nonces:   make(map[solana.PublicKey]uint64),
		modified: make(map[solana.PublicKey]uint32),
	}
}

func (s *State) nextState() *State {
	n := newState(s.db, s.rent, s.logger)
	n.dbVer = s.dbVer
	n.header = s.header.Clone()
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone copies the pending changes so a failed tx can be discarded.
func (s *State) Clone() *State {
	n := newState(s.db, s.rent, s.logger)
	n.dbVer = s.dbVer
	n.header = s.header.Clone()
	for k, v := range s.records {
		n.records[k] = v.Clone()
	}
	for k, v := range s.nonces {
		n.nonces[k] = v
	}
	for k, v := range s.modified {
		n.modified[k] = v
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = s.header.Unmarshal(val)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = bytes.Clone(rootHash)
		s.header.Hash = bytes.Clone(h[:])
	}
	return
}

// Update writes the pending changes to the working tree and returns the
// resulting app hash.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	_, err = s.db.Set([]byte(KeyState), s.header.Marshal())
	if err != nil {
		return
	}

	addrs := make([]solana.PublicKey, 0, len(s.modified))
	for addr := range s.modified {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	var val []byte
	for _, addr := range addrs {
		flag := s.modified[addr]
		if flag&(ModifiedFlagNew|ModifiedFlagMod) != 0 {
			val, err = rlp.EncodeToBytes(s.records[addr])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(fmt.Sprintf(KeyRecordBody, addr[:])), val)
			if err != nil {
				return
			}
		}
		if flag&ModifiedFlagNonce != 0 {
			val, err = rlp.EncodeToBytes(s.nonces[addr])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(fmt.Sprintf(KeyNonce, addr[:])), val)
			if err != nil {
				return
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modified = make(map[solana.PublicKey]uint32)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Height() uint64 {
	return s.header.Height
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) SetBlockTime(t time.Time) {
	s.header.BlockTime = t.Unix()
}

// Now is the time of the block being executed.
func (s *State) Now() time.Time {
	return time.Unix(s.header.BlockTime, 0).UTC()
}

func (s *State) record(addr solana.PublicKey) (rec *Record, err error) {
	rec, ok := s.records[addr]
	if ok {
		return
	}
	val, err := s.db.Get([]byte(fmt.Sprintf(KeyRecordBody, addr[:])))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	rec = new(Record)
	err = rlp.DecodeBytes(val, rec)
	if err != nil {
		return nil, err
	}
	s.records[addr] = rec
	return
}

func (s *State) setRecord(addr solana.PublicKey, rec *Record, flag uint32) {
	s.records[addr] = rec
	s.modified[addr] |= flag
}

// Record returns a copy of the record at addr, or nil if none exists.
func (s *State) Record(addr solana.PublicKey) (*Record, error) {
	rec, err := s.record(addr)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (s *State) CreateRecord(payer, addr, owner solana.PublicKey, size int) (err error) {
	if size < 0 {
		return fmt.Errorf("record size %d: %w", size, types.ErrInvalidData)
	}
	rec, err := s.record(addr)
	if err != nil {
		return
	}
	if !rec.Empty() {
		return fmt.Errorf("record %v: %w", addr, types.ErrAlreadyExists)
	}
	flag := uint32(ModifiedFlagMod)
	if rec == nil {
		rec = &Record{}
		flag = ModifiedFlagNew
	}
	if need := s.rent.MinimumBalance(size); rec.Balance < need {
		if err = s.Transfer(payer, addr, need-rec.Balance); err != nil {
			return
		}
		rec, _ = s.record(addr)
	}
	rec.Owner = owner
	rec.Data = make([]byte, size)
	s.setRecord(addr, rec, flag)
	return
}

func (s *State) ResizeRecord(payer, addr solana.PublicKey, size int) (err error) {
	if size < 0 {
		return fmt.Errorf("record size %d: %w", size, types.ErrInvalidData)
	}
	rec, err := s.record(addr)
	if err != nil {
		return
	}
	if rec == nil {
		return fmt.Errorf("record %v: %w", addr, types.ErrNotFound)
	}
	if size > len(rec.Data) {
		if need := s.rent.MinimumBalance(size); rec.Balance < need {
			if err = s.Transfer(payer, addr, need-rec.Balance); err != nil {
				return
			}
		}
		rec.Data = append(rec.Data, make([]byte, size-len(rec.Data))...)
	} else {
		rec.Data = rec.Data[:size:size]
	}
	s.setRecord(addr, rec, ModifiedFlagMod)
	return
}

func (s *State) WriteData(addr solana.PublicKey, data []byte) (err error) {
	rec, err := s.record(addr)
	if err != nil {
		return
	}
	if rec == nil {
		return fmt.Errorf("record %v: %w", addr, types.ErrNotFound)
	}
	if len(data) != len(rec.Data) {
		return fmt.Errorf("write %d bytes to %d byte record %v: %w", len(data), len(rec.Data), addr, types.ErrInvalidData)
	}
	copy(rec.Data, data)
	s.setRecord(addr, rec, ModifiedFlagMod)
	return
}

// Transfer moves amount from one record to another. A record holding data
// cannot drop below its minimum deposit.
func (s *State) Transfer(from, to solana.PublicKey, amount uint64) (err error) {
	if amount == 0 {
		return nil
	}
	src, err := s.record(from)
	if err != nil {
		return
	}
	if src == nil || src.Balance < amount {
		return fmt.Errorf("%v cannot pay %d: %w", from, amount, types.ErrInsufficientFunds)
	}
	if len(src.Data) > 0 && src.Balance-amount < s.rent.MinimumBalance(len(src.Data)) {
		return fmt.Errorf("%v would drop below its deposit: %w", from, types.ErrInsufficientFunds)
	}
	dst, err := s.record(to)
	if err != nil {
		return
	}
	flag := uint32(ModifiedFlagMod)
	if dst == nil {
		dst = &Record{}
		flag = ModifiedFlagNew
	}
	if dst.Balance+amount < dst.Balance {
		return fmt.Errorf("%v balance: %w", to, types.ErrOverflow)
	}
	src.Balance -= amount
	dst.Balance += amount
	s.setRecord(from, src, ModifiedFlagMod)
	s.setRecord(to, dst, flag)
	return
}

// Credit mints balance into a wallet. Used for genesis allocations only.
func (s *State) Credit(addr solana.PublicKey, amount uint64) (err error) {
	rec, err := s.record(addr)
	if err != nil {
		return
	}
	flag := uint32(ModifiedFlagMod)
	if rec == nil {
		rec = &Record{}
		flag = ModifiedFlagNew
	}
	if rec.Balance+amount < rec.Balance {
		return fmt.Errorf("%v balance: %w", addr, types.ErrOverflow)
	}
	rec.Balance += amount
	s.setRecord(addr, rec, flag)
	return
}

func (s *State) Nonce(addr solana.PublicKey) (nonce uint64, err error) {
	nonce, ok := s.nonces[addr]
	if ok {
		return
	}
	val, err := s.db.Get([]byte(fmt.Sprintf(KeyNonce, addr[:])))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}
	if val != nil {
		err = rlp.DecodeBytes(val, &nonce)
		if err != nil {
			return
		}
	}
	s.nonces[addr] = nonce
	return
}

func (s *State) IncNonce(addr solana.PublicKey) (err error) {
	nonce, err := s.Nonce(addr)
	if err != nil {
		return
	}
	s.nonces[addr] = nonce + 1
	s.modified[addr] |= ModifiedFlagNonce
	return
}

// Verify checks the sender nonce and every signature of mtx.
func (s *State) Verify(mtx *tx.MsigTx, allowNonceGap bool) (err error) {
	sender, err := mtx.Sender()
	if err != nil {
		return
	}
	nonce, err := s.Nonce(sender)
	if err != nil {
		return
	}
	if !(nonce == mtx.Nonce || (allowNonceGap && nonce < mtx.Nonce)) {
		return fmt.Errorf("%v nonce %d, tx %d: %w", sender, nonce, mtx.Nonce, ErrTxNonceInvalid)
	}
	return mtx.Verify(s.header.ChainId)
}
