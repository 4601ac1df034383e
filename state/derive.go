package state

import (
	"encoding/binary"
	"fmt"

	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

const (
	SeedGroup       = "multisig"
	SeedTreasury    = "treasury"
	SeedProposal    = "proposal"
	SeedTransaction = "transaction"
)

// ProgramDeriver derives program addresses off the ed25519 curve for one program identity.
type ProgramDeriver struct {
	programID solana.PublicKey
}

func NewProgramDeriver(programID solana.PublicKey) *ProgramDeriver {
	return &ProgramDeriver{programID: programID}
}

func (d *ProgramDeriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *ProgramDeriver) FindAddress(seeds [][]byte) (addr solana.PublicKey, bump uint8, err error) {
	addr, bump, err = solana.FindProgramAddress(seeds, d.programID)
	return
}

func (d *ProgramDeriver) VerifyAddress(seeds [][]byte, bump uint8, addr solana.PublicKey) error {
	withBump := make([][]byte, 0, len(seeds)+1)
	withBump = append(withBump, seeds...)
	withBump = append(withBump, []byte{bump})
	derived, err := solana.CreateProgramAddress(withBump, d.programID)
	if err != nil {
		return fmt.Errorf("derive %v: %v: %w", addr, err, types.ErrAddressMismatch)
	}
	if !derived.Equals(addr) {
		return fmt.Errorf("derived %v, supplied %v: %w", derived, addr, types.ErrAddressMismatch)
	}
	return nil
}

func GroupSeeds(primarySeed uint16) [][]byte {
	return [][]byte{[]byte(SeedGroup), binary.LittleEndian.AppendUint16(nil, primarySeed)}
}

func TreasurySeeds(group solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedTreasury), group.Bytes()}
}

func ProposalSeeds(group solana.PublicKey, primarySeed uint16) [][]byte {
	return [][]byte{[]byte(SeedProposal), group.Bytes(), binary.LittleEndian.AppendUint16(nil, primarySeed)}
}

func TransactionSeeds(payer solana.PublicKey, index uint64) [][]byte {
	return [][]byte{[]byte(SeedTransaction), payer.Bytes(), binary.LittleEndian.AppendUint64(nil, index)}
}
