package state

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// AddressDeriver computes record addresses from seed components.
type AddressDeriver interface {
	FindAddress(seeds [][]byte) (addr solana.PublicKey, bump uint8, err error)
	VerifyAddress(seeds [][]byte, bump uint8, addr solana.PublicKey) error
}

// RecordAllocator owns record storage. Record returns a copy the caller may
// mutate freely; nothing is persisted until WriteData.
type RecordAllocator interface {
	Record(addr solana.PublicKey) (*Record, error)
	// CreateRecord allocates size zeroed bytes at addr, funding the minimum
	// deposit from payer.
	CreateRecord(payer, addr, owner solana.PublicKey, size int) error
	// ResizeRecord tops up addr from payer before growing it. Shrinking keeps
	// the balance.
	ResizeRecord(payer, addr solana.PublicKey, size int) error
	// WriteData replaces the record's bytes. The length must match the current size.
	WriteData(addr solana.PublicKey, data []byte) error
}

type BalanceTransferer interface {
	Transfer(from, to solana.PublicKey, amount uint64) error
}

type DepositCalculator interface {
	MinimumBalance(size int) uint64
}

type Clock interface {
	Now() time.Time
}

type SignerVerifier interface {
	IsSigner(id solana.PublicKey) bool
}

// Signers is the verified signer set of one transaction.
type Signers map[solana.PublicKey]struct{}

func NewSigners(ids ...solana.PublicKey) Signers {
	s := make(Signers, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Signers) IsSigner(id solana.PublicKey) bool {
	_, ok := s[id]
	return ok
}
