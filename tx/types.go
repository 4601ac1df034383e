package tx

import (
	"errors"
	"fmt"
)

type Opcode uint8

const (
	OpInitGroup         Opcode = 0
	OpCreateProposal    Opcode = 2
	OpVote              Opcode = 3
	OpCloseProposal     Opcode = 4
	OpCreateTransaction Opcode = 5
	OpUpdateMembers     Opcode = 6
	OpUpdateGroup       Opcode = 7
)

func (op Opcode) String() string {
	switch op {
	case OpInitGroup:
		return "init_group"
	case OpCreateProposal:
		return "create_proposal"
	case OpVote:
		return "vote"
	case OpCloseProposal:
		return "close_proposal"
	case OpCreateTransaction:
		return "create_transaction"
	case OpUpdateMembers:
		return "update_members"
	case OpUpdateGroup:
		return "update_group"
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// Sub-operations of OpUpdateMembers.
const (
	MemberOpAdd    uint8 = 1
	MemberOpRemove uint8 = 2
)

// Sub-operations of OpUpdateGroup.
const (
	GroupUpdateThreshold     uint8 = 1
	GroupUpdateSpendingLimit uint8 = 2
	GroupUpdateStaleIndex    uint8 = 3
)

// Fixed payload sizes, opcode byte excluded.
const (
	InitGroupLen         = 16
	CreateProposalLen    = 10
	VoteLen              = 3
	CreateTransactionLen = 522
	UpdateMembersLen     = 34
	UpdateGroupLen       = 10
)

const (
	MsigTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrTxSigInvalid         = errors.New("signature invalid")
)
