package handler

import (
	"context"
	"testing"
	"time"

	"github.com/calehh/msig-app/state"
	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgramID = solana.MustPublicKeyFromBase58("4ibrEMW5F6hKnkW4jVedswYv6H6VtwPN6ar6dvXDN1nT")

type env struct {
	t        *testing.T
	st       *state.State
	handlers map[tx.Opcode]TxHandler
	deriver  *state.ProgramDeriver
}

func newEnv(t *testing.T) *env {
	db, err := state.NewMemStateDB(state.DefaultRent(), log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := db.NewState()
	st.SetBlockTime(time.Unix(1_700_000_000, 0))
	return &env{
		t:        t,
		st:       st,
		handlers: NewHandlers(log.NewNopLogger(), state.DefaultParams(testProgramID)),
		deriver:  state.NewProgramDeriver(testProgramID),
	}
}

func (e *env) wallet() solana.PublicKey {
	pk := solana.NewWallet().PublicKey()
	require.NoError(e.t, e.st.Credit(pk, 1_000_000_000_000))
	return pk
}

func (e *env) derive(seeds [][]byte) (solana.PublicKey, uint8) {
	addr, bump, err := e.deriver.FindAddress(seeds)
	require.NoError(e.t, err)
	return addr, bump
}

func newTx(signer solana.PublicKey, accounts []solana.PublicKey, data []byte) *tx.MsigTx {
	return &tx.MsigTx{
		Version:  tx.MsigTxVersion0,
		Signers:  []solana.PublicKey{signer},
		Accounts: accounts,
		Data:     data,
	}
}

// process runs one instruction and returns its single event.
func (e *env) process(signer solana.PublicKey, accounts []solana.PublicKey, data []byte) (abcitypes.Event, error) {
	mtx := newTx(signer, accounts, data)
	res, err := e.handlers[mtx.Opcode()].Process(context.Background(), e.st, mtx)
	if err != nil {
		return abcitypes.Event{}, err
	}
	require.Len(e.t, res.Events, 1)
	return res.Events[0], nil
}

func (e *env) initGroup(creator solana.PublicKey, seed uint16, admins, members []solana.PublicKey) solana.PublicKey {
	g, _ := e.derive(state.GroupSeeds(seed))
	tr, _ := e.derive(state.TreasurySeeds(g))
	accounts := append([]solana.PublicKey{creator, g, tr}, admins...)
	accounts = append(accounts, members...)
	ix := &tx.InitGroupInstruction{
		MaxExpiry:    3600,
		PrimarySeed:  seed,
		MinThreshold: 1,
		NumMembers:   uint8(len(admins) + len(members)),
		NumAdmins:    uint8(len(admins)),
	}
	ev, err := e.process(creator, accounts, ix.Encode())
	require.NoError(e.t, err)
	require.Equal(e.t, types.EventInitGroupType, ev.Type)
	return g
}

func TestNewHandlers(t *testing.T) {
	hs := NewHandlers(log.NewNopLogger(), state.DefaultParams(testProgramID))
	assert.Len(t, hs, 6)
	for _, op := range []tx.Opcode{tx.OpInitGroup, tx.OpCreateProposal, tx.OpVote, tx.OpCreateTransaction, tx.OpUpdateMembers, tx.OpUpdateGroup} {
		assert.Contains(t, hs, op, op.String())
	}
	assert.NotContains(t, hs, tx.OpCloseProposal)
}

func TestInitGroupTx(t *testing.T) {
	e := newEnv(t)
	creator := e.wallet()
	a1, m1 := e.wallet(), e.wallet()
	g, _ := e.derive(state.GroupSeeds(1))
	tr, _ := e.derive(state.TreasurySeeds(g))
	ix := &tx.InitGroupInstruction{MaxExpiry: 60, PrimarySeed: 1, MinThreshold: 2, NumMembers: 2, NumAdmins: 1}

	ev, err := e.process(creator, []solana.PublicKey{creator, g, tr, a1, m1}, ix.Encode())
	require.NoError(t, err)
	event := types.DecodeEventInitGroup(ev)
	require.NotNil(t, event)
	assert.Equal(t, g.String(), event.Group)
	assert.Equal(t, tr.String(), event.Treasury)
	assert.Equal(t, uint8(1), event.AdminCounter)
	assert.Equal(t, []string{a1.String(), m1.String()}, event.Members)

	_, err = e.process(creator, []solana.PublicKey{creator, g, tr, a1, m1}, ix.Encode())
	assert.ErrorIs(t, err, types.ErrAlreadyExists)
}

func TestUpdateMembersTx(t *testing.T) {
	e := newEnv(t)
	creator := e.wallet()
	a1 := e.wallet()
	g := e.initGroup(creator, 2, []solana.PublicKey{a1}, nil)
	m1 := e.wallet()

	add := &tx.UpdateMembersInstruction{Operation: tx.MemberOpAdd, Member: m1, Role: types.RoleMember}
	ev, err := e.process(a1, []solana.PublicKey{a1, g}, add.Encode())
	require.NoError(t, err)
	assert.Equal(t, types.EventAddMemberType, ev.Type)
	event := types.DecodeEventMember(ev)
	require.NotNil(t, event)
	assert.Equal(t, m1.String(), event.Member)
	assert.Equal(t, uint8(2), event.NumMembers)

	remove := &tx.UpdateMembersInstruction{Operation: tx.MemberOpRemove, Member: m1}
	ev, err = e.process(a1, []solana.PublicKey{a1, g}, remove.Encode())
	require.NoError(t, err)
	assert.Equal(t, types.EventRemoveMemberType, ev.Type)
	event = types.DecodeEventMember(ev)
	require.NotNil(t, event)
	assert.Equal(t, uint8(1), event.NumMembers)

	_, err = e.process(a1, []solana.PublicKey{a1, g}, remove.Encode())
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdateGroupTx(t *testing.T) {
	e := newEnv(t)
	creator := e.wallet()
	g := e.initGroup(creator, 3, []solana.PublicKey{e.wallet()}, nil)

	ix := &tx.UpdateGroupInstruction{UpdateType: tx.GroupUpdateSpendingLimit, Value: 5000}
	ev, err := e.process(creator, []solana.PublicKey{creator, g}, ix.Encode())
	require.NoError(t, err)
	event := types.DecodeEventUpdateGroup(ev)
	require.NotNil(t, event)
	assert.Equal(t, tx.GroupUpdateSpendingLimit, event.UpdateType)
	assert.Equal(t, uint64(5000), event.Value)

	ix = &tx.UpdateGroupInstruction{UpdateType: 9}
	_, err = e.process(creator, []solana.PublicKey{creator, g}, ix.Encode())
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestProposalAndVoteTx(t *testing.T) {
	e := newEnv(t)
	creator := e.wallet()
	a1, m1 := e.wallet(), e.wallet()
	g := e.initGroup(creator, 4, []solana.PublicKey{a1}, []solana.PublicKey{m1})
	_, gBump := e.derive(state.GroupSeeds(4))
	p, pBump := e.derive(state.ProposalSeeds(g, 7))

	cp := &tx.CreateProposalInstruction{Expiry: 600, PrimarySeed: 7}
	ev, err := e.process(a1, []solana.PublicKey{a1, p, g}, cp.Encode())
	require.NoError(t, err)
	created := types.DecodeEventCreateProposal(ev)
	require.NotNil(t, created)
	assert.Equal(t, p.String(), created.Proposal)
	assert.Equal(t, uint64(7), created.ProposalId)

	vote := &tx.VoteInstruction{GroupBump: gBump, ProposalBump: pBump, Choice: types.VoteYes}
	ev, err = e.process(m1, []solana.PublicKey{m1, g, p}, vote.Encode())
	require.NoError(t, err)
	voted := types.DecodeEventVote(ev)
	require.NotNil(t, voted)
	assert.Equal(t, uint16(1), voted.YesVotes)
	assert.Equal(t, uint16(0), voted.NoVotes)

	vote.Choice = types.VoteNo
	ev, err = e.process(m1, []solana.PublicKey{m1, g, p}, vote.Encode())
	require.NoError(t, err)
	voted = types.DecodeEventVote(ev)
	require.NotNil(t, voted)
	assert.Equal(t, uint16(0), voted.YesVotes)
	assert.Equal(t, uint16(1), voted.NoVotes)

	outsider := e.wallet()
	_, err = e.process(outsider, []solana.PublicKey{outsider, g, p}, vote.Encode())
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestCreateTransactionTx(t *testing.T) {
	e := newEnv(t)
	payer := e.wallet()
	addr, _ := e.derive(state.TransactionSeeds(payer, 1))
	ix := &tx.CreateTransactionInstruction{TransactionIndex: 1, BufferSize: 3}
	copy(ix.Buffer[:], []byte{1, 2, 3})

	ev, err := e.process(payer, []solana.PublicKey{payer, addr}, ix.Encode())
	require.NoError(t, err)
	event := types.DecodeEventCreateTransaction(ev)
	require.NotNil(t, event)
	assert.Equal(t, addr.String(), event.Transaction)
	assert.Equal(t, uint16(3), event.BufferSize)
}

func TestCheckDoesNotMutate(t *testing.T) {
	e := newEnv(t)
	creator := e.wallet()
	g, _ := e.derive(state.GroupSeeds(5))
	tr, _ := e.derive(state.TreasurySeeds(g))
	ix := &tx.InitGroupInstruction{MaxExpiry: 60, PrimarySeed: 5, MinThreshold: 1, NumMembers: 1, NumAdmins: 0}
	mtx := newTx(creator, []solana.PublicKey{creator, g, tr, e.wallet()}, ix.Encode())

	res, err := e.handlers[tx.OpInitGroup].Check(context.Background(), e.st, mtx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Code)
	rec, err := e.st.Record(g)
	require.NoError(t, err)
	assert.Nil(t, rec)

	mtx.Data = mtx.Data[:4]
	res, err = e.handlers[tx.OpInitGroup].Check(context.Background(), e.st, mtx)
	require.NoError(t, err)
	assert.Equal(t, types.ErrorCode(types.ErrInvalidData), res.Code)
	assert.NotEmpty(t, res.Log)
}
