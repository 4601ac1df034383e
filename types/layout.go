package types

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	EntryLen             = 32
	GroupHeaderLen       = 80
	ProposalHeaderLen    = 32
	TransactionBufferLen = 528
	TxBufferCap          = 512
)

// group header offsets
const (
	offGroupSeed          = 0
	offGroupPrimarySeed   = 8
	offGroupMaxExpiry     = 10
	offGroupSpendingLimit = 18
	offGroupTxIndex       = 26
	offGroupStaleTxIndex  = 34
	offGroupMinThreshold  = 42
	offGroupTreasury      = 43
	offGroupTreasuryBump  = 75
	offGroupBump          = 76
	offGroupNumMembers    = 77
	offGroupAdminCounter  = 78
)

// proposal header offsets
const (
	offProposalId      = 0
	offProposalExpiry  = 8
	offProposalCreated = 16
	offProposalStatus  = 24
	offProposalBump    = 25
	offProposalYes     = 26
	offProposalNo      = 28
)

// transaction buffer offsets
const (
	offTxIndex  = 0
	offTxSize   = 8
	offTxBuffer = 10
	offTxBump   = 522
)

type MemberRole uint8

const (
	RoleMember MemberRole = 0
	RoleAdmin  MemberRole = 1
)

type VoteChoice uint8

const (
	VoteNo  VoteChoice = 0
	VoteYes VoteChoice = 1
)

type ProposalStatus uint8

const (
	ProposalStatusDraft     ProposalStatus = 0
	ProposalStatusActive    ProposalStatus = 1
	ProposalStatusFailed    ProposalStatus = 2
	ProposalStatusSucceeded ProposalStatus = 3
	ProposalStatusCancelled ProposalStatus = 4
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusDraft:
		return "draft"
	case ProposalStatusActive:
		return "active"
	case ProposalStatusFailed:
		return "failed"
	case ProposalStatusSucceeded:
		return "succeeded"
	case ProposalStatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func (s ProposalStatus) Valid() bool {
	return s <= ProposalStatusCancelled
}

// GroupHeader is the fixed prefix of a group record. Member entries follow it.
type GroupHeader struct {
	Seed                  uint64           `json:"seed"`
	PrimarySeed           uint16           `json:"primarySeed"`
	MaxExpiry             uint64           `json:"maxExpiry"`
	AdminSpendingLimit    uint64           `json:"adminSpendingLimit"`
	TransactionIndex      uint64           `json:"transactionIndex"`
	StaleTransactionIndex uint64           `json:"staleTransactionIndex"`
	MinThreshold          uint8            `json:"minThreshold"`
	Treasury              solana.PublicKey `json:"treasury"`
	TreasuryBump          uint8            `json:"treasuryBump"`
	Bump                  uint8            `json:"bump"`
	NumMembers            uint8            `json:"numMembers"`
	AdminCounter          uint8            `json:"adminCounter"`
}

func DecodeGroupHeader(b []byte) (h *GroupHeader, err error) {
	if len(b) < GroupHeaderLen {
		return nil, fmt.Errorf("group header needs %d bytes, got %d: %w", GroupHeaderLen, len(b), ErrInvalidData)
	}
	h = &GroupHeader{
		Seed:                  binary.LittleEndian.Uint64(b[offGroupSeed:]),
		PrimarySeed:           binary.LittleEndian.Uint16(b[offGroupPrimarySeed:]),
		MaxExpiry:             binary.LittleEndian.Uint64(b[offGroupMaxExpiry:]),
		AdminSpendingLimit:    binary.LittleEndian.Uint64(b[offGroupSpendingLimit:]),
		TransactionIndex:      binary.LittleEndian.Uint64(b[offGroupTxIndex:]),
		StaleTransactionIndex: binary.LittleEndian.Uint64(b[offGroupStaleTxIndex:]),
		MinThreshold:          b[offGroupMinThreshold],
		Treasury:              solana.PublicKeyFromBytes(b[offGroupTreasury : offGroupTreasury+32]),
		TreasuryBump:          b[offGroupTreasuryBump],
		Bump:                  b[offGroupBump],
		NumMembers:            b[offGroupNumMembers],
		AdminCounter:          b[offGroupAdminCounter],
	}
	return
}

// Encode writes the header over the first GroupHeaderLen bytes of b in place.
func (h *GroupHeader) Encode(b []byte) error {
	if len(b) < GroupHeaderLen {
		return fmt.Errorf("group header needs %d bytes, got %d: %w", GroupHeaderLen, len(b), ErrInvalidData)
	}
	binary.LittleEndian.PutUint64(b[offGroupSeed:], h.Seed)
	binary.LittleEndian.PutUint16(b[offGroupPrimarySeed:], h.PrimarySeed)
	binary.LittleEndian.PutUint64(b[offGroupMaxExpiry:], h.MaxExpiry)
	binary.LittleEndian.PutUint64(b[offGroupSpendingLimit:], h.AdminSpendingLimit)
	binary.LittleEndian.PutUint64(b[offGroupTxIndex:], h.TransactionIndex)
	binary.LittleEndian.PutUint64(b[offGroupStaleTxIndex:], h.StaleTransactionIndex)
	b[offGroupMinThreshold] = h.MinThreshold
	copy(b[offGroupTreasury:offGroupTreasury+32], h.Treasury[:])
	b[offGroupTreasuryBump] = h.TreasuryBump
	b[offGroupBump] = h.Bump
	b[offGroupNumMembers] = h.NumMembers
	b[offGroupAdminCounter] = h.AdminCounter
	b[GroupHeaderLen-1] = 0
	return nil
}

func (h *GroupHeader) Bytes() []byte {
	b := make([]byte, GroupHeaderLen)
	_ = h.Encode(b)
	return b
}

// ProposalHeader is the fixed prefix of a proposal record. Voter entries follow it,
// yes voters first.
type ProposalHeader struct {
	ProposalId  uint64         `json:"proposalId"`
	Expiry      uint64         `json:"expiry"`
	CreatedTime uint64         `json:"createdTime"`
	Status      ProposalStatus `json:"status"`
	Bump        uint8          `json:"bump"`
	YesVotes    uint16         `json:"yesVotes"`
	NoVotes     uint16         `json:"noVotes"`
}

func DecodeProposalHeader(b []byte) (h *ProposalHeader, err error) {
	if len(b) < ProposalHeaderLen {
		return nil, fmt.Errorf("proposal header needs %d bytes, got %d: %w", ProposalHeaderLen, len(b), ErrInvalidData)
	}
	h = &ProposalHeader{
		ProposalId:  binary.LittleEndian.Uint64(b[offProposalId:]),
		Expiry:      binary.LittleEndian.Uint64(b[offProposalExpiry:]),
		CreatedTime: binary.LittleEndian.Uint64(b[offProposalCreated:]),
		Status:      ProposalStatus(b[offProposalStatus]),
		Bump:        b[offProposalBump],
		YesVotes:    binary.LittleEndian.Uint16(b[offProposalYes:]),
		NoVotes:     binary.LittleEndian.Uint16(b[offProposalNo:]),
	}
	if !h.Status.Valid() {
		return nil, fmt.Errorf("proposal %v: %w", h.Status, ErrInvalidData)
	}
	return
}

func (h *ProposalHeader) Encode(b []byte) error {
	if len(b) < ProposalHeaderLen {
		return fmt.Errorf("proposal header needs %d bytes, got %d: %w", ProposalHeaderLen, len(b), ErrInvalidData)
	}
	binary.LittleEndian.PutUint64(b[offProposalId:], h.ProposalId)
	binary.LittleEndian.PutUint64(b[offProposalExpiry:], h.Expiry)
	binary.LittleEndian.PutUint64(b[offProposalCreated:], h.CreatedTime)
	b[offProposalStatus] = uint8(h.Status)
	b[offProposalBump] = h.Bump
	binary.LittleEndian.PutUint16(b[offProposalYes:], h.YesVotes)
	binary.LittleEndian.PutUint16(b[offProposalNo:], h.NoVotes)
	b[ProposalHeaderLen-2] = 0
	b[ProposalHeaderLen-1] = 0
	return nil
}

func (h *ProposalHeader) Bytes() []byte {
	b := make([]byte, ProposalHeaderLen)
	_ = h.Encode(b)
	return b
}

// Voters is the length of the voter segment.
func (h *ProposalHeader) Voters() int {
	return int(h.YesVotes) + int(h.NoVotes)
}

// TransactionBuffer is an opaque payload captured for later execution.
type TransactionBuffer struct {
	TransactionIndex uint64            `json:"transactionIndex"`
	BufferSize       uint16            `json:"bufferSize"`
	Buffer           [TxBufferCap]byte `json:"-"`
	Bump             uint8             `json:"bump"`
}

func DecodeTransactionBuffer(b []byte) (t *TransactionBuffer, err error) {
	if len(b) < TransactionBufferLen {
		return nil, fmt.Errorf("transaction buffer needs %d bytes, got %d: %w", TransactionBufferLen, len(b), ErrInvalidData)
	}
	t = &TransactionBuffer{
		TransactionIndex: binary.LittleEndian.Uint64(b[offTxIndex:]),
		BufferSize:       binary.LittleEndian.Uint16(b[offTxSize:]),
		Bump:             b[offTxBump],
	}
	copy(t.Buffer[:], b[offTxBuffer:offTxBuffer+TxBufferCap])
	return
}

func (t *TransactionBuffer) Encode(b []byte) error {
	if len(b) < TransactionBufferLen {
		return fmt.Errorf("transaction buffer needs %d bytes, got %d: %w", TransactionBufferLen, len(b), ErrInvalidData)
	}
	binary.LittleEndian.PutUint64(b[offTxIndex:], t.TransactionIndex)
	binary.LittleEndian.PutUint16(b[offTxSize:], t.BufferSize)
	copy(b[offTxBuffer:offTxBuffer+TxBufferCap], t.Buffer[:])
	b[offTxBump] = t.Bump
	for i := offTxBump + 1; i < TransactionBufferLen; i++ {
		b[i] = 0
	}
	return nil
}

// Payload returns the used part of the buffer.
func (t *TransactionBuffer) Payload() []byte {
	n := int(t.BufferSize)
	if n > TxBufferCap {
		n = TxBufferCap
	}
	return t.Buffer[:n]
}
