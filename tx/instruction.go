package tx

import (
	"encoding/binary"
	"fmt"

	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
)

type InitGroupInstruction struct {
	MaxExpiry    uint64 `json:"maxExpiry"`
	PrimarySeed  uint16 `json:"primarySeed"`
	MinThreshold uint8  `json:"minThreshold"`
	NumMembers   uint8  `json:"numMembers"`
	NumAdmins    uint8  `json:"numAdmins"`
}

type CreateProposalInstruction struct {
	Expiry      uint64 `json:"expiry"`
	PrimarySeed uint16 `json:"primarySeed"`
}

type VoteInstruction struct {
	GroupBump    uint8            `json:"groupBump"`
	ProposalBump uint8            `json:"proposalBump"`
	Choice       types.VoteChoice `json:"choice"`
}

type CreateTransactionInstruction struct {
	TransactionIndex uint64                  `json:"transactionIndex"`
	Buffer           [types.TxBufferCap]byte `json:"buffer"`
	BufferSize       uint16                  `json:"bufferSize"`
}

type UpdateMembersInstruction struct {
	Operation uint8            `json:"operation"`
	Member    solana.PublicKey `json:"member"`
	Role      types.MemberRole `json:"role"`
}

type UpdateGroupInstruction struct {
	Value      uint64 `json:"value"`
	UpdateType uint8  `json:"updateType"`
	Threshold  uint8  `json:"threshold"`
}

func short(op Opcode, want, got int) error {
	return fmt.Errorf("%v payload needs %d bytes, got %d: %w", op, want, got, types.ErrInvalidData)
}

// SplitOpcode separates the leading opcode from its payload.
func SplitOpcode(data []byte) (op Opcode, payload []byte, err error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("empty instruction: %w", types.ErrInvalidData)
	}
	return Opcode(data[0]), data[1:], nil
}

// Payloads are C-struct images. Bytes past the fixed size are ignored.

func DecodeInitGroup(b []byte) (ix *InitGroupInstruction, err error) {
	if len(b) < InitGroupLen {
		return nil, short(OpInitGroup, InitGroupLen, len(b))
	}
	ix = &InitGroupInstruction{
		MaxExpiry:    binary.LittleEndian.Uint64(b[0:]),
		PrimarySeed:  binary.LittleEndian.Uint16(b[8:]),
		MinThreshold: b[10],
		NumMembers:   b[11],
		NumAdmins:    b[12],
	}
	return
}

func (ix *InitGroupInstruction) Encode() []byte {
	b := make([]byte, 1+InitGroupLen)
	b[0] = byte(OpInitGroup)
	binary.LittleEndian.PutUint64(b[1:], ix.MaxExpiry)
	binary.LittleEndian.PutUint16(b[9:], ix.PrimarySeed)
	b[11] = ix.MinThreshold
	b[12] = ix.NumMembers
	b[13] = ix.NumAdmins
	return b
}

func DecodeCreateProposal(b []byte) (ix *CreateProposalInstruction, err error) {
	if len(b) < CreateProposalLen {
		return nil, short(OpCreateProposal, CreateProposalLen, len(b))
	}
	ix = &CreateProposalInstruction{
		Expiry:      binary.LittleEndian.Uint64(b[0:]),
		PrimarySeed: binary.LittleEndian.Uint16(b[8:]),
	}
	return
}

func (ix *CreateProposalInstruction) Encode() []byte {
	b := make([]byte, 1+CreateProposalLen)
	b[0] = byte(OpCreateProposal)
	binary.LittleEndian.PutUint64(b[1:], ix.Expiry)
	binary.LittleEndian.PutUint16(b[9:], ix.PrimarySeed)
	return b
}

func DecodeVote(b []byte) (ix *VoteInstruction, err error) {
	if len(b) < VoteLen {
		return nil, short(OpVote, VoteLen, len(b))
	}
	choice := types.VoteChoice(b[2])
	if choice != types.VoteYes && choice != types.VoteNo {
		return nil, fmt.Errorf("vote choice %d: %w", b[2], types.ErrInvalidData)
	}
	ix = &VoteInstruction{
		GroupBump:    b[0],
		ProposalBump: b[1],
		Choice:       choice,
	}
	return
}

func (ix *VoteInstruction) Encode() []byte {
	return []byte{byte(OpVote), ix.GroupBump, ix.ProposalBump, byte(ix.Choice)}
}

func DecodeCreateTransaction(b []byte) (ix *CreateTransactionInstruction, err error) {
	if len(b) < CreateTransactionLen {
		return nil, short(OpCreateTransaction, CreateTransactionLen, len(b))
	}
	ix = &CreateTransactionInstruction{
		TransactionIndex: binary.LittleEndian.Uint64(b[0:]),
		BufferSize:       binary.LittleEndian.Uint16(b[8+types.TxBufferCap:]),
	}
	copy(ix.Buffer[:], b[8:8+types.TxBufferCap])
	return
}

func (ix *CreateTransactionInstruction) Encode() []byte {
	b := make([]byte, 1+CreateTransactionLen)
	b[0] = byte(OpCreateTransaction)
	binary.LittleEndian.PutUint64(b[1:], ix.TransactionIndex)
	copy(b[9:9+types.TxBufferCap], ix.Buffer[:])
	binary.LittleEndian.PutUint16(b[9+types.TxBufferCap:], ix.BufferSize)
	return b
}

func DecodeUpdateMembers(b []byte) (ix *UpdateMembersInstruction, err error) {
	if len(b) < UpdateMembersLen {
		return nil, short(OpUpdateMembers, UpdateMembersLen, len(b))
	}
	ix = &UpdateMembersInstruction{
		Operation: b[0],
		Member:    solana.PublicKeyFromBytes(b[1:33]),
	}
	switch ix.Operation {
	case MemberOpAdd:
		role := types.MemberRole(b[33])
		if role != types.RoleAdmin && role != types.RoleMember {
			return nil, fmt.Errorf("member role %d: %w", b[33], types.ErrInvalidData)
		}
		ix.Role = role
	case MemberOpRemove:
	default:
		return nil, fmt.Errorf("member operation %d: %w", ix.Operation, types.ErrInvalidData)
	}
	return
}

func (ix *UpdateMembersInstruction) Encode() []byte {
	b := make([]byte, 1+UpdateMembersLen)
	b[0] = byte(OpUpdateMembers)
	b[1] = ix.Operation
	copy(b[2:34], ix.Member[:])
	b[34] = byte(ix.Role)
	return b
}

func DecodeUpdateGroup(b []byte) (ix *UpdateGroupInstruction, err error) {
	if len(b) < UpdateGroupLen {
		return nil, short(OpUpdateGroup, UpdateGroupLen, len(b))
	}
	ix = &UpdateGroupInstruction{
		Value:      binary.LittleEndian.Uint64(b[0:]),
		UpdateType: b[8],
		Threshold:  b[9],
	}
	return
}

func (ix *UpdateGroupInstruction) Encode() []byte {
	b := make([]byte, 1+UpdateGroupLen)
	b[0] = byte(OpUpdateGroup)
	binary.LittleEndian.PutUint64(b[1:], ix.Value)
	b[9] = ix.UpdateType
	b[10] = ix.Threshold
	return b
}

// DecodeInstruction splits data and decodes the payload for its opcode.
func DecodeInstruction(data []byte) (op Opcode, ix any, err error) {
	op, payload, err := SplitOpcode(data)
	if err != nil {
		return
	}
	switch op {
	case OpInitGroup:
		ix, err = DecodeInitGroup(payload)
	case OpCreateProposal:
		ix, err = DecodeCreateProposal(payload)
	case OpVote:
		ix, err = DecodeVote(payload)
	case OpCreateTransaction:
		ix, err = DecodeCreateTransaction(payload)
	case OpUpdateMembers:
		ix, err = DecodeUpdateMembers(payload)
	case OpUpdateGroup:
		ix, err = DecodeUpdateGroup(payload)
	case OpCloseProposal:
		err = fmt.Errorf("%v: %w", op, types.ErrUnsupportedInstruction)
	default:
		err = fmt.Errorf("%v: %w", op, types.ErrInvalidData)
	}
	return
}
