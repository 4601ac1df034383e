package state

import (
	"testing"
	"time"

	"github.com/calehh/msig-app/tx"
	"github.com/calehh/msig-app/types"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

var testProgramID = solana.MustPublicKeyFromBase58("4ibrEMW5F6hKnkW4jVedswYv6H6VtwPN6ar6dvXDN1nT")

const testFunds = 1_000_000_000_000

type fixture struct {
	t       *testing.T
	db      *StateDB
	st      *State
	eng     *Engine
	deriver *ProgramDeriver
	rent    Rent
}

func newFixture(t *testing.T, opts ...func(*Params)) *fixture {
	rent := DefaultRent()
	db, err := NewMemStateDB(rent, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := db.NewState()
	st.SetBlockTime(time.Unix(1_700_000_000, 0))
	params := DefaultParams(testProgramID)
	for _, o := range opts {
		o(&params)
	}
	return &fixture{
		t:       t,
		db:      db,
		st:      st,
		eng:     NewEngine(log.NewNopLogger(), params, st, st),
		deriver: NewProgramDeriver(testProgramID),
		rent:    rent,
	}
}

func (f *fixture) wallet() solana.PublicKey {
	pk := solana.NewWallet().PublicKey()
	require.NoError(f.t, f.st.Credit(pk, testFunds))
	return pk
}

func (f *fixture) groupAddr(seed uint16) (solana.PublicKey, solana.PublicKey) {
	g, _, err := f.deriver.FindAddress(GroupSeeds(seed))
	require.NoError(f.t, err)
	tr, _, err := f.deriver.FindAddress(TreasurySeeds(g))
	require.NoError(f.t, err)
	return g, tr
}

func (f *fixture) proposalAddr(group solana.PublicKey, seed uint16) (solana.PublicKey, uint8) {
	p, bump, err := f.deriver.FindAddress(ProposalSeeds(group, seed))
	require.NoError(f.t, err)
	return p, bump
}

// initGroup creates a group at seed with the given admins followed by members.
func (f *fixture) initGroup(creator solana.PublicKey, seed uint16, admins, members []solana.PublicKey) solana.PublicKey {
	g, tr := f.groupAddr(seed)
	accounts := []solana.PublicKey{creator, g, tr}
	accounts = append(accounts, admins...)
	accounts = append(accounts, members...)
	_, err := f.eng.InitGroup(NewSigners(creator), accounts, &tx.InitGroupInstruction{
		MaxExpiry:    3600,
		PrimarySeed:  seed,
		MinThreshold: 1,
		NumMembers:   uint8(len(admins) + len(members)),
		NumAdmins:    uint8(len(admins)),
	})
	require.NoError(f.t, err)
	return g
}

func (f *fixture) add(payer, group, id solana.PublicKey, role types.MemberRole) error {
	_, err := f.eng.UpdateMembers(NewSigners(payer), []solana.PublicKey{payer, group},
		&tx.UpdateMembersInstruction{Operation: tx.MemberOpAdd, Member: id, Role: role})
	return err
}

func (f *fixture) remove(payer, group, id solana.PublicKey) error {
	_, err := f.eng.UpdateMembers(NewSigners(payer), []solana.PublicKey{payer, group},
		&tx.UpdateMembersInstruction{Operation: tx.MemberOpRemove, Member: id})
	return err
}

func (f *fixture) createProposal(creator, group solana.PublicKey, seed uint16) (solana.PublicKey, error) {
	p, _ := f.proposalAddr(group, seed)
	_, err := f.eng.CreateProposal(NewSigners(creator), []solana.PublicKey{creator, p, group},
		&tx.CreateProposalInstruction{Expiry: 600, PrimarySeed: seed})
	return p, err
}

func (f *fixture) vote(voter, group, proposal solana.PublicKey, choice types.VoteChoice) error {
	gh := f.groupHeader(group)
	ph := f.proposalHeader(proposal)
	_, err := f.eng.Vote(NewSigners(voter), []solana.PublicKey{voter, group, proposal},
		&tx.VoteInstruction{GroupBump: gh.Bump, ProposalBump: ph.Bump, Choice: choice})
	return err
}

func (f *fixture) record(addr solana.PublicKey) *Record {
	rec, err := f.st.Record(addr)
	require.NoError(f.t, err)
	require.NotNil(f.t, rec)
	return rec
}

func (f *fixture) groupHeader(addr solana.PublicKey) *types.GroupHeader {
	h, err := types.DecodeGroupHeader(f.record(addr).Data)
	require.NoError(f.t, err)
	return h
}

func (f *fixture) members(addr solana.PublicKey) []solana.PublicKey {
	rec := f.record(addr)
	h, err := types.DecodeGroupHeader(rec.Data)
	require.NoError(f.t, err)
	a, err := NewDenseArray(rec.Data, types.GroupHeaderLen, int(h.NumMembers))
	require.NoError(f.t, err)
	return a.Entries()
}

func (f *fixture) proposalHeader(addr solana.PublicKey) *types.ProposalHeader {
	h, err := types.DecodeProposalHeader(f.record(addr).Data)
	require.NoError(f.t, err)
	return h
}

func (f *fixture) voters(addr solana.PublicKey) []solana.PublicKey {
	rec := f.record(addr)
	h, err := types.DecodeProposalHeader(rec.Data)
	require.NoError(f.t, err)
	a, err := NewDenseArray(rec.Data, types.ProposalHeaderLen, h.Voters())
	require.NoError(f.t, err)
	return a.Entries()
}

// requireDeposit checks the record holds the minimum deposit for its size.
func (f *fixture) requireDeposit(addr solana.PublicKey) {
	rec := f.record(addr)
	require.GreaterOrEqual(f.t, rec.Balance, f.rent.MinimumBalance(len(rec.Data)), "record %v under-collateralized", addr)
}
