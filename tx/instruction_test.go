package tx

import (
	"testing"

	"github.com/calehh/msig-app/types"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInstruction(t *testing.T) {
	member := solana.NewWallet().PublicKey()
	tb := &CreateTransactionInstruction{TransactionIndex: 5, BufferSize: 2}
	tb.Buffer[0], tb.Buffer[1] = 0xde, 0xad

	cases := []struct {
		name string
		data []byte
		op   Opcode
		ix   any
	}{
		{"init", (&InitGroupInstruction{MaxExpiry: 9, PrimarySeed: 300, MinThreshold: 2, NumMembers: 3, NumAdmins: 1}).Encode(),
			OpInitGroup, &InitGroupInstruction{MaxExpiry: 9, PrimarySeed: 300, MinThreshold: 2, NumMembers: 3, NumAdmins: 1}},
		{"proposal", (&CreateProposalInstruction{Expiry: 77, PrimarySeed: 4}).Encode(),
			OpCreateProposal, &CreateProposalInstruction{Expiry: 77, PrimarySeed: 4}},
		{"vote", (&VoteInstruction{GroupBump: 254, ProposalBump: 253, Choice: types.VoteYes}).Encode(),
			OpVote, &VoteInstruction{GroupBump: 254, ProposalBump: 253, Choice: types.VoteYes}},
		{"transaction", tb.Encode(), OpCreateTransaction, tb},
		{"add", (&UpdateMembersInstruction{Operation: MemberOpAdd, Member: member, Role: types.RoleAdmin}).Encode(),
			OpUpdateMembers, &UpdateMembersInstruction{Operation: MemberOpAdd, Member: member, Role: types.RoleAdmin}},
		{"remove", (&UpdateMembersInstruction{Operation: MemberOpRemove, Member: member}).Encode(),
			OpUpdateMembers, &UpdateMembersInstruction{Operation: MemberOpRemove, Member: member}},
		{"group", (&UpdateGroupInstruction{Value: 1 << 50, UpdateType: GroupUpdateSpendingLimit}).Encode(),
			OpUpdateGroup, &UpdateGroupInstruction{Value: 1 << 50, UpdateType: GroupUpdateSpendingLimit}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			op, ix, err := DecodeInstruction(c.data)
			require.NoError(t, err)
			assert.Equal(t, c.op, op)
			assert.Equal(t, c.ix, ix)
		})
	}
}

func TestDecodeInitGroupLayout(t *testing.T) {
	payload := []byte{
		0x10, 0, 0, 0, 0, 0, 0, 0, // max_expiry
		0x02, 0x01, // primary_seed
		3, 4, 2, // threshold, members, admins
		0, 0, 0, // pad
	}
	ix, err := DecodeInitGroup(payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), ix.MaxExpiry)
	assert.Equal(t, uint16(0x0102), ix.PrimarySeed)
	assert.Equal(t, uint8(3), ix.MinThreshold)
	assert.Equal(t, uint8(4), ix.NumMembers)
	assert.Equal(t, uint8(2), ix.NumAdmins)
}

func TestDecodeShortPayload(t *testing.T) {
	for _, op := range []Opcode{OpInitGroup, OpCreateProposal, OpVote, OpCreateTransaction, OpUpdateMembers, OpUpdateGroup} {
		_, _, err := DecodeInstruction([]byte{byte(op), 1})
		assert.ErrorIs(t, err, types.ErrInvalidData, op.String())
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	data := append((&CreateProposalInstruction{Expiry: 1, PrimarySeed: 2}).Encode(), 0, 0, 0, 0, 0, 0)
	_, ix, err := DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, &CreateProposalInstruction{Expiry: 1, PrimarySeed: 2}, ix)
}

func TestDecodeRejected(t *testing.T) {
	_, _, err := DecodeInstruction(nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, _, err = DecodeInstruction([]byte{byte(OpCloseProposal)})
	assert.ErrorIs(t, err, types.ErrUnsupportedInstruction)

	_, _, err = DecodeInstruction([]byte{1})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = DecodeVote([]byte{0, 0, 2})
	assert.ErrorIs(t, err, types.ErrInvalidData)

	bad := (&UpdateMembersInstruction{Operation: 3}).Encode()
	_, err = DecodeUpdateMembers(bad[1:])
	assert.ErrorIs(t, err, types.ErrInvalidData)

	badRole := (&UpdateMembersInstruction{Operation: MemberOpAdd, Role: 7}).Encode()
	_, err = DecodeUpdateMembers(badRole[1:])
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
